package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared by the repositories and the view builder.
const (
	CollUsers         = "users"
	CollVideos        = "videos"
	CollComments      = "comments"
	CollLikes         = "likes"
	CollPlaylists     = "playlists"
	CollSubscriptions = "subscriptions"
)

// mapWriteErr translates driver-level write failures into repository sentinels.
func mapWriteErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapReadErr translates driver-level read failures into repository sentinels.
func mapReadErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// indexModels lists the uniqueness indexes per collection: one account per
// username and email, one playlist name per owner, and at most one like per
// (user, target) pair. The like indexes are partial, each covering only the
// documents that carry its target field; likedBy is set on every like, so a
// sparse index would index comment likes under a null video key and collide.
func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollPlaylists: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollLikes: {
			{
				Keys: bson.D{{Key: "likedBy", Value: 1}, {Key: "video", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"video": bson.M{"$exists": true}}),
			},
			{
				Keys: bson.D{{Key: "likedBy", Value: 1}, {Key: "comment", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"comment": bson.M{"$exists": true}}),
			},
		},
	}
}

// EnsureIndexes creates the uniqueness indexes the entity invariants rely on.
// Creating them again is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range indexModels() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}
