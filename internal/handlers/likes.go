package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

// LikeHandler implements the like endpoints.
type LikeHandler struct {
	Likes    LikeStore
	Videos   VideoStore
	Comments CommentStore
	Views    ViewBuilder
}

type toggleLikeRequest struct {
	LikeType string `json:"likeType"`
}

type toggleLikeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

// Toggle handles POST /likes/toggle-like/{targetId}. The body names the
// target kind, defaulting to a video. A first call likes the target, a second
// removes the like; either way the response reports the resulting state with
// the target's current like count.
func (h LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	targetID, err := pathObjectID(r, "targetId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req toggleLikeRequest
	// An empty body means a video like.
	_ = json.NewDecoder(r.Body).Decode(&req)

	kind := models.LikeTargetVideo
	if req.LikeType != "" {
		kind = models.LikeTarget(req.LikeType)
		if !kind.Valid() {
			respondError(ctx, w, errBadRequest("likeType must be Video or Comment"))
			return
		}
	}

	if err := h.targetExists(ctx, targetID, kind); err != nil {
		respondError(ctx, w, err)
		return
	}

	removed, err := h.Likes.Remove(ctx, user.ID, targetID, kind)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	liked := false
	if !removed {
		like := models.Like{LikedBy: user.ID}
		if kind == models.LikeTargetComment {
			like.Comment = targetID
		} else {
			like.Video = targetID
		}
		// A conflict here means a concurrent request already recorded the
		// like; the end state is the same.
		if err := h.Likes.Create(ctx, like); err != nil && !errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, err)
			return
		}
		liked = true
	}

	count, err := h.Likes.CountByTarget(ctx, targetID, kind)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, toggleLikeResponse{Liked: liked, LikesCount: count}, "like toggled")
}

// LikedVideos handles GET /likes/likes-count: every video the session user
// has liked, each with its owner and that owner's subscriber count.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	entries, err := h.Views.LikedVideos(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if entries == nil {
		entries = []views.LikedVideoEntry{}
	}

	respond(ctx, w, http.StatusOK, entries, "liked videos fetched")
}

func (h LikeHandler) targetExists(ctx context.Context, id primitive.ObjectID, kind models.LikeTarget) error {
	var err error
	if kind == models.LikeTargetComment {
		_, err = h.Comments.FindByID(ctx, id)
	} else {
		_, err = h.Videos.FindByID(ctx, id)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return errNotFound("like target not found")
	}
	return err
}
