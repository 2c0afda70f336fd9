package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

// PlaylistHandler implements the playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Views     ViewBuilder
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /playLists. Playlist names are unique per owner; two
// different users may each own a playlist with the same name.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, errBadRequest("invalid request body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, errBadRequest("name and description are required"))
		return
	}

	if _, err := h.Playlists.FindByOwnerAndName(ctx, user.ID, req.Name); err == nil {
		respondError(ctx, w, errConflict("a playlist with this name already exists"))
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Playlists.Create(ctx, models.Playlist{
		Owner:       user.ID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, errConflict("a playlist with this name already exists"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusCreated, playlist, "playlist created")
}

// GetByID handles GET /playLists/{playListId}: the playlist with its member
// videos embedded.
func (h PlaylistHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlistID, err := pathObjectID(r, "playListId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Views.PlaylistByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, errNotFound("playlist not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, playlist, "playlist fetched")
}

// GetByUser handles GET /playLists/user/{userId}: all playlists the named
// user owns. A user with none yields an empty list.
func (h PlaylistHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathObjectID(r, "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlists, err := h.Views.PlaylistsByUser(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if playlists == nil {
		playlists = []views.PlaylistView{}
	}

	respond(ctx, w, http.StatusOK, playlists, "playlists fetched")
}

// Delete handles DELETE /playLists/{playListId}. Only the owner may delete.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	playlistID, err := pathObjectID(r, "playListId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if playlist.Owner != user.ID {
		respondError(ctx, w, errUnauthorized("only the owner may delete this playlist"))
		return
	}

	deleted, err := h.Playlists.Delete(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, deleted, "playlist deleted")
}

// AddVideo handles PATCH /playLists/add/{videoId}/{playListId}. Adding a
// video already in the playlist changes nothing.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, h.Playlists.AddVideo, "video added to playlist")
}

// RemoveVideo handles PATCH /playLists/remove/{videoId}/{playListId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, h.Playlists.RemoveVideo, "video removed from playlist")
}

type membershipFunc func(ctx context.Context, playlistID, videoID primitive.ObjectID) (models.Playlist, error)

func (h PlaylistHandler) changeMembership(w http.ResponseWriter, r *http.Request, apply membershipFunc, message string) {
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
	playlistID, err := pathObjectID(r, "playListId")
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

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if playlist.Owner != user.ID {
		respondError(ctx, w, errUnauthorized("only the owner may modify this playlist"))
		return
	}

	updated, err := apply(ctx, playlistID, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, updated, message)
}
