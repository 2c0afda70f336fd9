package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaRef points at an object held by the media collaborator. Key is the
// storage identifier used for deletion, URL the public location.
type MediaRef struct {
	URL string `bson:"url" json:"url"`
	Key string `bson:"key" json:"key,omitempty"`
}

// User represents an account on the VidTube platform.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	FullName     string               `bson:"fullName" json:"fullName"`
	Password     string               `bson:"password" json:"-"`
	Avatar       MediaRef             `bson:"avatar" json:"avatar"`
	CoverImage   MediaRef             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	RefreshToken string               `bson:"refreshToken,omitempty" json:"-"`
	WatchHistory []primitive.ObjectID `bson:"watchHistory,omitempty" json:"-"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Video stores an uploaded video together with its media references.
type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	VideoFile   MediaRef           `bson:"videoFile" json:"videoFile"`
	Thumbnail   MediaRef           `bson:"thumbnail" json:"thumbnail"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Comment is a remark left by a user on a video.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Video     primitive.ObjectID `bson:"video" json:"video"`
	Owner     primitive.ObjectID `bson:"owner" json:"owner"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LikeTarget discriminates what a like points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "Video"
	LikeTargetComment LikeTarget = "Comment"
)

// Valid reports whether the target names one of the supported kinds.
func (t LikeTarget) Valid() bool {
	return t == LikeTargetVideo || t == LikeTargetComment
}

// Like records that a user liked exactly one of a video or a comment. The
// unused target field stays unset so likes can be matched by either key.
type Like struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LikedBy   primitive.ObjectID `bson:"likedBy" json:"likedBy"`
	Video     primitive.ObjectID `bson:"video,omitempty" json:"video,omitempty"`
	Comment   primitive.ObjectID `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Playlist is an ordered set of videos owned by a user. Membership is
// maintained with $addToSet/$pull so the list never holds duplicates.
type Playlist struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Owner       primitive.ObjectID   `bson:"owner" json:"owner"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Videos      []primitive.ObjectID `bson:"videos,omitempty" json:"videos"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Subscription links a subscriber to a channel (a user).
type Subscription struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Channel    primitive.ObjectID `bson:"channel" json:"channel"`
	Subscriber primitive.ObjectID `bson:"subscriber" json:"subscriber"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
