package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// VideoHandler implements the video endpoints, including the cross-collection
// cascade that runs when a video is deleted.
type VideoHandler struct {
	Videos        VideoStore
	Users         UserStore
	Comments      CommentStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Media         MediaStore
	Views         ViewBuilder
}

// List handles GET /videos: one page of published videos, optionally narrowed
// by a search query and sorted by an arbitrary field.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	opts := repositories.VideoListOptions{
		Query:   strings.TrimSpace(query.Get("query")),
		SortBy:  strings.TrimSpace(query.Get("sortBy")),
		SortAsc: strings.EqualFold(query.Get("sortType"), "asc"),
		Page:    pageFromQuery(r),
	}

	if raw := strings.TrimSpace(query.Get("userId")); raw != "" {
		owner, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respondError(ctx, w, errBadRequest("invalid userId"))
			return
		}
		opts.ExcludeOwner = owner
	}

	page, err := h.Videos.List(ctx, opts)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, page, "videos fetched")
}

// Upload handles POST /videos/upload. The multipart body carries the title,
// description, and duration fields plus the video file and its thumbnail.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, errBadRequest("expected multipart form data"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, errBadRequest("title and description are required"))
		return
	}

	var duration float64
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			respondError(ctx, w, errBadRequest("invalid duration"))
			return
		}
		duration = parsed
	}

	videoFile, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		respondError(ctx, w, errBadRequest("video file is required"))
		return
	}
	defer videoFile.Close()

	thumbFile, thumbHeader, err := r.FormFile("thumbnail")
	if err != nil {
		respondError(ctx, w, errBadRequest("thumbnail is required"))
		return
	}
	defer thumbFile.Close()

	videoRef, err := h.Media.Save(ctx, videoHeader.Filename, videoFile)
	if err != nil {
		respondError(ctx, w, fmt.Errorf("store video file: %w", err))
		return
	}

	thumbRef, err := h.Media.Save(ctx, thumbHeader.Filename, thumbFile)
	if err != nil {
		discardMedia(ctx, h.Media, videoRef)
		respondError(ctx, w, fmt.Errorf("store thumbnail: %w", err))
		return
	}

	video, err := h.Videos.Create(ctx, models.Video{
		Owner:       user.ID,
		Title:       title,
		Description: description,
		VideoFile:   videoRef,
		Thumbnail:   thumbRef,
		Duration:    duration,
		IsPublished: true,
	})
	if err != nil {
		discardMedia(ctx, h.Media, videoRef, thumbRef)
		respondError(ctx, w, err)
		return
	}

	logger.Info("video uploaded", "videoId", video.ID.Hex(), "owner", user.ID.Hex())
	respond(ctx, w, http.StatusCreated, video, "video uploaded")
}

// Detail handles GET /videos/{videoId}: the video with its engagement counts.
// Unpublished videos are visible to their owner only; everyone else gets the
// same response as for a nonexistent video. Fetching a published video bumps
// its view counter and records it in the viewer's watch history.
func (h VideoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewer, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	videoID, err := pathObjectID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	detail, err := h.Views.VideoDetail(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if !detail.IsPublished && detail.Owner != viewer.ID {
		respondError(ctx, w, errNotFound("video not found"))
		return
	}

	if detail.IsPublished {
		if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
			logger.Warn("failed to increment view counter", "videoId", videoID.Hex(), "error", err)
		}
		if err := h.Users.AddWatchHistory(ctx, viewer.ID, videoID); err != nil {
			logger.Warn("failed to record watch history", "videoId", videoID.Hex(), "error", err)
		}
	}

	respond(ctx, w, http.StatusOK, detail, "video fetched")
}

// Update handles PATCH /videos/{videoId}. Title and description arrive as
// form fields, the thumbnail as an optional file; at least one must be
// present. Only the owner may update a video.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

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

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if video.Owner != user.ID {
		respondError(ctx, w, errUnauthorized("only the owner may update this video"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, errBadRequest("expected multipart form data"))
		return
	}

	var update repositories.VideoUpdate
	if title := strings.TrimSpace(r.FormValue("title")); title != "" {
		update.Title = &title
	}
	if description := strings.TrimSpace(r.FormValue("description")); description != "" {
		update.Description = &description
	}

	oldThumbnail := models.MediaRef{}
	if thumbFile, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumbFile.Close()
		ref, err := h.Media.Save(ctx, thumbHeader.Filename, thumbFile)
		if err != nil {
			respondError(ctx, w, fmt.Errorf("store thumbnail: %w", err))
			return
		}
		update.Thumbnail = &ref
		oldThumbnail = video.Thumbnail
	}

	if update.Title == nil && update.Description == nil && update.Thumbnail == nil {
		respondError(ctx, w, errBadRequest("nothing to update"))
		return
	}

	updated, err := h.Videos.Update(ctx, videoID, update)
	if err != nil {
		if update.Thumbnail != nil {
			discardMedia(ctx, h.Media, *update.Thumbnail)
		}
		respondError(ctx, w, err)
		return
	}

	if oldThumbnail.Key != "" {
		if err := h.Media.Delete(ctx, oldThumbnail); err != nil {
			logger.Warn("failed to delete replaced thumbnail", "key", oldThumbnail.Key, "error", err)
		}
	}

	respond(ctx, w, http.StatusOK, updated, "video updated")
}

// Delete handles DELETE /videos/{videoId}. Removing a video cascades across
// the related collections: comments on it, likes targeting it, subscriptions
// keyed to it, and its entries in every watch history, plus the stored media
// objects. Cleanup failures are logged and do not abort the delete.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

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

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if video.Owner != user.ID {
		respondError(ctx, w, errUnauthorized("only the owner may delete this video"))
		return
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	ctx, span := logging.StartSpan(ctx, "video-delete-cascade")
	defer span.End()
	logger = logging.FromContext(ctx)

	cleanup := []struct {
		what string
		run  func() error
	}{
		{"comments", func() error { return h.Comments.DeleteByVideo(ctx, videoID) }},
		{"likes", func() error { return h.Likes.DeleteByVideo(ctx, videoID) }},
		{"subscriptions", func() error { return h.Subscriptions.DeleteByChannel(ctx, videoID) }},
		{"watch history", func() error { return h.Users.PullWatchHistory(ctx, videoID) }},
		{"video object", func() error { return h.Media.Delete(ctx, video.VideoFile) }},
		{"thumbnail object", func() error { return h.Media.Delete(ctx, video.Thumbnail) }},
	}
	for _, step := range cleanup {
		if err := step.run(); err != nil {
			logger.Warn("video delete cascade step failed", "videoId", videoID.Hex(), "step", step.what, "error", err)
		}
	}

	logger.Info("video deleted", "videoId", videoID.Hex(), "owner", user.ID.Hex())
	respond(ctx, w, http.StatusOK, nil, "video deleted")
}

// TogglePublished handles PATCH /videos/{videoId}/togglePublished.
func (h VideoHandler) TogglePublished(w http.ResponseWriter, r *http.Request) {
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

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if video.Owner != user.ID {
		respondError(ctx, w, errUnauthorized("only the owner may publish or unpublish this video"))
		return
	}

	updated, err := h.Videos.TogglePublished(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, updated, "publish state toggled")
}

// discardMedia removes objects uploaded during a request that ultimately
// failed, so nothing is left orphaned in storage.
func discardMedia(ctx context.Context, media MediaStore, refs ...models.MediaRef) {
	logger := logging.FromContext(ctx)
	for _, ref := range refs {
		if ref.Key == "" {
			continue
		}
		if err := media.Delete(ctx, ref); err != nil {
			logger.Warn("failed to delete orphaned media object", "key", ref.Key, "error", err)
		}
	}
}

// pathObjectID parses the named path segment as an ObjectID.
func pathObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errBadRequest("invalid " + name)
	}
	return id, nil
}
