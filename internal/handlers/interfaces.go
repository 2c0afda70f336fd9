package handlers

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

// UserStore is the persistence surface the user handlers depend on.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindPublicByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id primitive.ObjectID, fullName, email string) (models.User, error)
	SetAvatar(ctx context.Context, id primitive.ObjectID, ref models.MediaRef) (models.User, error)
	SetCoverImage(ctx context.Context, id primitive.ObjectID, ref models.MediaRef) (models.User, error)
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	AddWatchHistory(ctx context.Context, userID, videoID primitive.ObjectID) error
	PullWatchHistory(ctx context.Context, videoID primitive.ObjectID) error
}

// TokenManager issues, rotates, and revokes the session token pair.
type TokenManager interface {
	Rotate(ctx context.Context, userID primitive.ObjectID) (models.TokenPair, error)
	VerifyRefresh(ctx context.Context, token string) (primitive.ObjectID, error)
	Revoke(ctx context.Context, userID primitive.ObjectID) error
}

// VideoStore is the persistence surface the video handlers depend on.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Video, error)
	Update(ctx context.Context, id primitive.ObjectID, update repositories.VideoUpdate) (models.Video, error)
	TogglePublished(ctx context.Context, id primitive.ObjectID) (models.Video, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, opts repositories.VideoListOptions) (views.Page[models.Video], error)
}

// CommentStore is the persistence surface the comment handlers depend on.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) (models.Comment, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Comment, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (models.Comment, error)
	Delete(ctx context.Context, id primitive.ObjectID) (models.Comment, error)
	DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) error
}

// LikeStore is the persistence surface the like handlers depend on.
type LikeStore interface {
	Create(ctx context.Context, like models.Like) error
	Remove(ctx context.Context, likedBy, target primitive.ObjectID, kind models.LikeTarget) (bool, error)
	CountByTarget(ctx context.Context, target primitive.ObjectID, kind models.LikeTarget) (int64, error)
	DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) error
}

// PlaylistStore is the persistence surface the playlist handlers depend on.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) (models.Playlist, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Playlist, error)
	FindByOwnerAndName(ctx context.Context, owner primitive.ObjectID, name string) (models.Playlist, error)
	Delete(ctx context.Context, id primitive.ObjectID) (models.Playlist, error)
	AddVideo(ctx context.Context, playlistID, videoID primitive.ObjectID) (models.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, videoID primitive.ObjectID) (models.Playlist, error)
}

// SubscriptionStore is the persistence surface the subscription handlers
// depend on.
type SubscriptionStore interface {
	Toggle(ctx context.Context, channel, subscriber primitive.ObjectID) (bool, error)
	CountByChannel(ctx context.Context, channel primitive.ObjectID) (int64, error)
	DeleteByChannel(ctx context.Context, channel primitive.ObjectID) error
}

// ViewBuilder runs the denormalized read views.
type ViewBuilder interface {
	VideoComments(ctx context.Context, videoID primitive.ObjectID, req views.PageRequest) (views.Page[views.CommentView], error)
	LikedVideos(ctx context.Context, userID primitive.ObjectID) ([]views.LikedVideoEntry, error)
	PlaylistByID(ctx context.Context, id primitive.ObjectID) (views.PlaylistView, error)
	PlaylistsByUser(ctx context.Context, userID primitive.ObjectID) ([]views.PlaylistView, error)
	VideoDetail(ctx context.Context, videoID primitive.ObjectID) (views.VideoDetail, error)
	ChannelProfile(ctx context.Context, username string, viewerID primitive.ObjectID) (views.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]views.HistoryEntry, error)
}

// MediaStore holds uploaded media objects.
type MediaStore interface {
	Save(ctx context.Context, name string, r io.Reader) (models.MediaRef, error)
	Delete(ctx context.Context, ref models.MediaRef) error
}
