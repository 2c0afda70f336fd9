package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/views"
)

// VideoUpdate carries the optional fields of a video PATCH; nil means leave
// the field untouched.
type VideoUpdate struct {
	Title       *string
	Description *string
	Thumbnail   *models.MediaRef
}

// VideoListOptions narrows and orders a listing of published videos.
type VideoListOptions struct {
	Query        string
	SortBy       string
	SortAsc      bool
	ExcludeOwner primitive.ObjectID
	Page         views.PageRequest
}

// MongoVideoRepository provides MongoDB-backed persistence for videos.
type MongoVideoRepository struct {
	coll *mongo.Collection
}

// NewMongoVideoRepository constructs a video repository over the videos collection.
func NewMongoVideoRepository(db *mongo.Database) *MongoVideoRepository {
	return &MongoVideoRepository{coll: db.Collection(CollVideos)}
}

// Create persists a new video record.
func (r *MongoVideoRepository) Create(ctx context.Context, video models.Video) (models.Video, error) {
	now := time.Now().UTC()
	video.CreatedAt = now
	video.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, video)
	if err != nil {
		return models.Video{}, mapWriteErr(err, "insert video")
	}
	video.ID = res.InsertedID.(primitive.ObjectID)
	return video, nil
}

// FindByID fetches a video by its identifier.
func (r *MongoVideoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Video, error) {
	var video models.Video
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&video); err != nil {
		return models.Video{}, mapReadErr(err, "select video by id")
	}
	return video, nil
}

// Update applies the provided partial update and returns the updated record.
func (r *MongoVideoRepository) Update(ctx context.Context, id primitive.ObjectID, update VideoUpdate) (models.Video, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Thumbnail != nil {
		set["thumbnail"] = *update.Thumbnail
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var video models.Video
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&video)
	if err != nil {
		return models.Video{}, mapReadErr(err, "update video")
	}
	return video, nil
}

// TogglePublished flips the published flag atomically using a pipeline update
// and returns the resulting record.
func (r *MongoVideoRepository) TogglePublished(ctx context.Context, id primitive.ObjectID) (models.Video, error) {
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"isPublished": bson.M{"$eq": bson.A{"$isPublished", false}},
			"updatedAt":   time.Now().UTC(),
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var video models.Video
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&video)
	if err != nil {
		return models.Video{}, mapReadErr(err, "toggle published")
	}
	return video, nil
}

// IncrementViews bumps the view counter by one.
func (r *MongoVideoRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return mapWriteErr(err, "increment views")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the video record itself. The cross-collection cascade is the
// caller's responsibility.
func (r *MongoVideoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapWriteErr(err, "delete video")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of published videos, optionally narrowed by a
// case-insensitive title/description search and excluding one owner's videos.
func (r *MongoVideoRepository) List(ctx context.Context, opts VideoListOptions) (views.Page[models.Video], error) {
	filter := bson.M{"isPublished": true}
	if !opts.ExcludeOwner.IsZero() {
		filter["owner"] = bson.M{"$ne": opts.ExcludeOwner}
	}
	if opts.Query != "" {
		pattern := primitive.Regex{Pattern: opts.Query, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	req := opts.Page.Normalized()

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return views.Page[models.Video]{}, mapWriteErr(err, "count videos")
	}

	sortField := "createdAt"
	if opts.SortBy != "" {
		sortField = opts.SortBy
	}
	direction := -1
	if opts.SortAsc {
		direction = 1
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: direction}}).
		SetSkip(int64(req.Skip())).
		SetLimit(int64(req.Limit))

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return views.Page[models.Video]{}, mapWriteErr(err, "list videos")
	}
	defer cursor.Close(ctx)

	var items []models.Video
	if err := cursor.All(ctx, &items); err != nil {
		return views.Page[models.Video]{}, mapWriteErr(err, "decode videos")
	}

	return views.NewPage(items, total, req), nil
}
