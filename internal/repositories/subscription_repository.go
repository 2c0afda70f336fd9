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

// MongoSubscriptionRepository provides MongoDB-backed persistence for
// channel subscriptions.
type MongoSubscriptionRepository struct {
	coll *mongo.Collection
}

// NewMongoSubscriptionRepository constructs a subscription repository over the
// subscriptions collection.
func NewMongoSubscriptionRepository(db *mongo.Database) *MongoSubscriptionRepository {
	return &MongoSubscriptionRepository{coll: db.Collection(CollSubscriptions)}
}

// Toggle subscribes the user to the channel, or unsubscribes when a
// subscription already exists. Returns the resulting subscribed state.
func (r *MongoSubscriptionRepository) Toggle(ctx context.Context, channel, subscriber primitive.ObjectID) (bool, error) {
	filter := bson.M{"channel": channel, "subscriber": subscriber}

	err := r.coll.FindOneAndDelete(ctx, filter).Err()
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, mapReadErr(err, "delete subscription")
	}

	_, err = r.coll.InsertOne(ctx, models.Subscription{
		Channel:    channel,
		Subscriber: subscriber,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return false, mapWriteErr(err, "insert subscription")
	}
	return true, nil
}

// CountByChannel returns how many subscribers the channel has.
func (r *MongoSubscriptionRepository) CountByChannel(ctx context.Context, channel primitive.ObjectID) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"channel": channel})
	if err != nil {
		return 0, mapWriteErr(err, "count subscriptions")
	}
	return count, nil
}

// DeleteByChannel removes every subscription keyed to the channel. Part of
// the video delete cascade.
func (r *MongoSubscriptionRepository) DeleteByChannel(ctx context.Context, channel primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"channel": channel})
	return mapWriteErr(err, "delete subscriptions by channel")
}
