package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/views"
)

func newCommentTestEnv() (*videoTestEnv, CommentHandler) {
	env := newVideoTestEnv()
	handler := CommentHandler{
		Comments: env.comm,
		Videos:   env.videos,
		Views:    env.handler.Views,
	}
	return env, handler
}

func TestCommentHandlerCreate(t *testing.T) {
	env, handler := newCommentTestEnv()
	owner := seedUser(t, env.users, "owner", "password123")
	commenter := seedUser(t, env.users, "commenter", "password123")
	video := env.seedVideo(t, owner, true)

	body, _ := json.Marshal(commentRequest{Content: "great video"})
	req := withSessionUser(httptest.NewRequest(http.MethodPost, "/comments/"+video.ID.Hex(), bytes.NewReader(body)), commenter)
	req.SetPathValue("videoId", video.ID.Hex())
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.Comment `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Owner != commenter.ID || resp.Data.Video != video.ID {
		t.Fatalf("comment misattributed: %+v", resp.Data)
	}
}

func TestCommentHandlerCreateUnknownVideo(t *testing.T) {
	env, handler := newCommentTestEnv()
	commenter := seedUser(t, env.users, "commenter", "password123")

	missing := primitive.NewObjectID()
	body, _ := json.Marshal(commentRequest{Content: "hello"})
	req := withSessionUser(httptest.NewRequest(http.MethodPost, "/comments/"+missing.Hex(), bytes.NewReader(body)), commenter)
	req.SetPathValue("videoId", missing.Hex())
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCommentHandlerListPagination(t *testing.T) {
	env, handler := newCommentTestEnv()
	owner := seedUser(t, env.users, "owner", "password123")
	commenter := seedUser(t, env.users, "commenter", "password123")
	video := env.seedVideo(t, owner, true)

	ctx := context.Background()
	for i := 0; i < 25; i++ {
		_, err := env.comm.Create(ctx, models.Comment{
			Video:   video.ID,
			Owner:   commenter.ID,
			Content: fmt.Sprintf("comment %d", i),
		})
		if err != nil {
			t.Fatalf("seed comment %d: %v", i, err)
		}
	}

	fetch := func(query string) views.Page[views.CommentView] {
		req := withSessionUser(httptest.NewRequest(http.MethodGet, "/comments/"+video.ID.Hex()+query, nil), commenter)
		req.SetPathValue("videoId", video.ID.Hex())
		rec := httptest.NewRecorder()

		handler.ListForVideo(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
		var resp struct {
			Data views.Page[views.CommentView] `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp.Data
	}

	page := fetch("?page=2&limit=10")
	if page.TotalCount != 25 || page.TotalPages != 3 {
		t.Fatalf("expected 25 comments over 3 pages, got %d/%d", page.TotalCount, page.TotalPages)
	}
	if len(page.Items) != 10 {
		t.Fatalf("expected 10 items on page 2 got %d", len(page.Items))
	}
	if page.Page != 2 {
		t.Fatalf("expected page 2 got %d", page.Page)
	}

	// Non-positive paging values fall back to defaults instead of failing.
	page = fetch("?page=0&limit=-5")
	if page.Page != 1 || page.Limit != 10 {
		t.Fatalf("expected defaults page=1 limit=10, got page=%d limit=%d", page.Page, page.Limit)
	}
	if len(page.Items) != 10 {
		t.Fatalf("expected 10 items with default paging got %d", len(page.Items))
	}

	last := fetch("?page=3&limit=10")
	if len(last.Items) != 5 {
		t.Fatalf("expected 5 items on the last page got %d", len(last.Items))
	}
}

func TestCommentHandlerListUnknownVideo(t *testing.T) {
	env, handler := newCommentTestEnv()
	viewer := seedUser(t, env.users, "viewer", "password123")

	missing := primitive.NewObjectID()
	req := withSessionUser(httptest.NewRequest(http.MethodGet, "/comments/"+missing.Hex(), nil), viewer)
	req.SetPathValue("videoId", missing.Hex())
	rec := httptest.NewRecorder()

	handler.ListForVideo(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCommentHandlerUpdateAuthorOnly(t *testing.T) {
	env, handler := newCommentTestEnv()
	owner := seedUser(t, env.users, "owner", "password123")
	author := seedUser(t, env.users, "author", "password123")
	other := seedUser(t, env.users, "other", "password123")
	video := env.seedVideo(t, owner, true)

	comment, err := env.comm.Create(context.Background(), models.Comment{Video: video.ID, Owner: author.ID, Content: "original"})
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	body, _ := json.Marshal(commentRequest{Content: "edited"})
	req := withSessionUser(httptest.NewRequest(http.MethodPatch, "/comments/"+comment.ID.Hex(), bytes.NewReader(body)), other)
	req.SetPathValue("commentId", comment.ID.Hex())
	rec := httptest.NewRecorder()

	handler.Update(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d for non-author got %d", http.StatusUnauthorized, rec.Code)
	}

	body, _ = json.Marshal(commentRequest{Content: "edited"})
	req = withSessionUser(httptest.NewRequest(http.MethodPatch, "/comments/"+comment.ID.Hex(), bytes.NewReader(body)), author)
	req.SetPathValue("commentId", comment.ID.Hex())
	rec = httptest.NewRecorder()

	handler.Update(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, _ := env.comm.FindByID(context.Background(), comment.ID)
	if stored.Content != "edited" {
		t.Fatalf("expected content to be edited, got %q", stored.Content)
	}
}

func TestCommentHandlerDeleteAuthorOnly(t *testing.T) {
	env, handler := newCommentTestEnv()
	owner := seedUser(t, env.users, "owner", "password123")
	author := seedUser(t, env.users, "author", "password123")
	other := seedUser(t, env.users, "other", "password123")
	video := env.seedVideo(t, owner, true)

	comment, err := env.comm.Create(context.Background(), models.Comment{Video: video.ID, Owner: author.ID, Content: "to delete"})
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	req := withSessionUser(httptest.NewRequest(http.MethodDelete, "/comments/"+comment.ID.Hex(), nil), other)
	req.SetPathValue("commentId", comment.ID.Hex())
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d for non-author got %d", http.StatusUnauthorized, rec.Code)
	}

	req = withSessionUser(httptest.NewRequest(http.MethodDelete, "/comments/"+comment.ID.Hex(), nil), author)
	req.SetPathValue("commentId", comment.ID.Hex())
	rec = httptest.NewRecorder()

	handler.Delete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	if _, err := env.comm.FindByID(context.Background(), comment.ID); err == nil {
		t.Fatal("expected comment to be gone")
	}
}
