package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidtube/backend/internal/models"
)

// MongoCommentRepository provides MongoDB-backed persistence for comments.
type MongoCommentRepository struct {
	coll *mongo.Collection
}

// NewMongoCommentRepository constructs a comment repository over the comments collection.
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{coll: db.Collection(CollComments)}
}

// Create persists a new comment.
func (r *MongoCommentRepository) Create(ctx context.Context, comment models.Comment) (models.Comment, error) {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, comment)
	if err != nil {
		return models.Comment{}, mapWriteErr(err, "insert comment")
	}
	comment.ID = res.InsertedID.(primitive.ObjectID)
	return comment, nil
}

// FindByID fetches a comment by its identifier.
func (r *MongoCommentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Comment, error) {
	var comment models.Comment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return models.Comment{}, mapReadErr(err, "select comment by id")
	}
	return comment, nil
}

// UpdateContent replaces the comment body and returns the updated record.
func (r *MongoCommentRepository) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (models.Comment, error) {
	update := bson.M{"$set": bson.M{
		"content":   content,
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var comment models.Comment
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&comment); err != nil {
		return models.Comment{}, mapReadErr(err, "update comment")
	}
	return comment, nil
}

// Delete removes a comment and returns the deleted record.
func (r *MongoCommentRepository) Delete(ctx context.Context, id primitive.ObjectID) (models.Comment, error) {
	var comment models.Comment
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return models.Comment{}, mapReadErr(err, "delete comment")
	}
	return comment, nil
}

// DeleteByVideo removes every comment on the video. Part of the video delete
// cascade.
func (r *MongoCommentRepository) DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"video": videoID})
	return mapWriteErr(err, "delete comments by video")
}
