// Package views assembles read-only denormalized projections over the entity
// collections. The document store has no native join, so every view is an
// explicit pipeline: filter, lookup related documents, flatten one-to-one
// relations, derive counts, project a whitelist, paginate.
package views

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/backend/internal/models"
)

// UserSummary is the slice of a user embedded into joined views.
type UserSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
	FullName string             `bson:"fullName" json:"fullName"`
	Avatar   models.MediaRef    `bson:"avatar" json:"avatar"`
}

// CommentView is one comment with its author and like count embedded.
type CommentView struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Content    string             `bson:"content" json:"content"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	LikesCount int64              `bson:"likesCount" json:"likesCount"`
	Commenter  UserSummary        `bson:"commenter" json:"commenter"`
}

// ChannelOwner is a video owner enriched with a subscriber count.
type ChannelOwner struct {
	Username         string          `bson:"username" json:"username"`
	FullName         string          `bson:"fullName" json:"fullName"`
	Avatar           models.MediaRef `bson:"avatar" json:"avatar"`
	SubscribersCount int64           `bson:"subscribersCount" json:"subscribersCount"`
}

// VideoSummary is the whitelisted slice of a video embedded into views.
type VideoSummary struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	VideoFile   models.MediaRef    `bson:"videoFile" json:"videoFile"`
	Thumbnail   models.MediaRef    `bson:"thumbnail" json:"thumbnail"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
}

// LikedVideo is a video summary carrying its owner flattened in.
type LikedVideo struct {
	VideoSummary `bson:",inline"`
	OwnerDetail  ChannelOwner `bson:"ownerDetail" json:"ownerDetail"`
}

// LikedVideoEntry pairs a like with the video it targets.
type LikedVideoEntry struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Video LikedVideo         `bson:"video" json:"video"`
}

// PlaylistView is a playlist with its member videos embedded as raw summaries.
type PlaylistView struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Videos      []VideoSummary     `bson:"videos" json:"videos"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// VideoDetail is a single video with engagement counts derived from the
// likes, comments, and subscriptions collections.
type VideoDetail struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	Owner            primitive.ObjectID `bson:"owner" json:"owner"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	VideoFile        models.MediaRef    `bson:"videoFile" json:"videoFile"`
	Thumbnail        models.MediaRef    `bson:"thumbnail" json:"thumbnail"`
	Duration         float64            `bson:"duration" json:"duration"`
	Views            int64              `bson:"views" json:"views"`
	IsPublished      bool               `bson:"isPublished" json:"isPublished"`
	LikesCount       int64              `bson:"likesCount" json:"likesCount"`
	CommentsCount    int64              `bson:"commentsCount" json:"commentsCount"`
	SubscribersCount int64              `bson:"subscribersCount" json:"subscribersCount"`
}

// ChannelProfile is a user profile with subscription-derived counts and the
// viewer's own subscription state.
type ChannelProfile struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	Username          string             `bson:"username" json:"username"`
	FullName          string             `bson:"fullName" json:"fullName"`
	Email             string             `bson:"email" json:"email"`
	Avatar            models.MediaRef    `bson:"avatar" json:"avatar"`
	CoverImage        models.MediaRef    `bson:"coverImage" json:"coverImage"`
	SubscriberCount   int64              `bson:"subscriberCount" json:"subscriberCount"`
	SubscribedToCount int64              `bson:"subscribedToCount" json:"subscribedToCount"`
	IsSubscribed      bool               `bson:"isSubscribed" json:"isSubscribed"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}

// HistoryEntry is one watched video with its owner flattened in.
type HistoryEntry struct {
	VideoSummary `bson:",inline"`
	OwnerDetail  UserSummary `bson:"ownerDetail" json:"ownerDetail"`
}
