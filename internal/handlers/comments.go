package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// CommentHandler implements the comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Views    ViewBuilder
}

type commentRequest struct {
	Content string `json:"content"`
}

// ListForVideo handles GET /comments/{videoId}: one page of the video's
// comments, newest first, each with its author and like count. An unknown
// video is a 404; a known video with no comments is an empty page.
func (h CommentHandler) ListForVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathObjectID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, errNotFound("video not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	page, err := h.Views.VideoComments(ctx, videoID, pageFromQuery(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, page, "comments fetched")
}

// Create handles POST /comments/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	videoID, err := pathObjectID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, errBadRequest("invalid request body"))
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, errBadRequest("content is required"))
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, errNotFound("video not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.Create(ctx, models.Comment{
		Video:   videoID,
		Owner:   user.ID,
		Content: req.Content,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusCreated, comment, "comment added")
}

// Update handles PATCH /comments/{commentId}. Only the author may edit.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	commentID, err := pathObjectID(r, "commentId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, errBadRequest("invalid request body"))
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, errBadRequest("content is required"))
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if comment.Owner != user.ID {
		respondError(ctx, w, errUnauthorized("only the author may edit this comment"))
		return
	}

	updated, err := h.Comments.UpdateContent(ctx, commentID, req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, updated, "comment updated")
}

// Delete handles DELETE /comments/{commentId}. Only the author may delete.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	commentID, err := pathObjectID(r, "commentId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if comment.Owner != user.ID {
		respondError(ctx, w, errUnauthorized("only the author may delete this comment"))
		return
	}

	deleted, err := h.Comments.Delete(ctx, commentID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, deleted, "comment deleted")
}
