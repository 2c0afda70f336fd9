package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/backend/internal/models"
)

// targetField maps a like target kind onto the document field holding it.
func targetField(kind models.LikeTarget) string {
	if kind == models.LikeTargetComment {
		return "comment"
	}
	return "video"
}

// MongoLikeRepository provides MongoDB-backed persistence for likes.
type MongoLikeRepository struct {
	coll *mongo.Collection
}

// NewMongoLikeRepository constructs a like repository over the likes collection.
func NewMongoLikeRepository(db *mongo.Database) *MongoLikeRepository {
	return &MongoLikeRepository{coll: db.Collection(CollLikes)}
}

// Create records a like. A duplicate (user, target) pair yields ErrConflict.
func (r *MongoLikeRepository) Create(ctx context.Context, like models.Like) error {
	like.CreatedAt = time.Now().UTC()
	_, err := r.coll.InsertOne(ctx, like)
	return mapWriteErr(err, "insert like")
}

// Remove deletes the like of user on the target, reporting whether one
// existed.
func (r *MongoLikeRepository) Remove(ctx context.Context, likedBy, target primitive.ObjectID, kind models.LikeTarget) (bool, error) {
	filter := bson.M{
		"likedBy":         likedBy,
		targetField(kind): target,
	}

	err := r.coll.FindOneAndDelete(ctx, filter).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, mapReadErr(err, "delete like")
	}
	return true, nil
}

// CountByTarget returns how many likes the target currently has.
func (r *MongoLikeRepository) CountByTarget(ctx context.Context, target primitive.ObjectID, kind models.LikeTarget) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{targetField(kind): target})
	if err != nil {
		return 0, mapWriteErr(err, "count likes")
	}
	return count, nil
}

// DeleteByVideo removes every like targeting the video. Part of the video
// delete cascade.
func (r *MongoLikeRepository) DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"video": videoID})
	return mapWriteErr(err, "delete likes by video")
}
