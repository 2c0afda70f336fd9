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

// MongoPlaylistRepository provides MongoDB-backed persistence for playlists.
type MongoPlaylistRepository struct {
	coll *mongo.Collection
}

// NewMongoPlaylistRepository constructs a playlist repository over the playlists collection.
func NewMongoPlaylistRepository(db *mongo.Database) *MongoPlaylistRepository {
	return &MongoPlaylistRepository{coll: db.Collection(CollPlaylists)}
}

// Create persists a new playlist. A (owner, name) collision yields ErrConflict.
func (r *MongoPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	now := time.Now().UTC()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, playlist)
	if err != nil {
		return models.Playlist{}, mapWriteErr(err, "insert playlist")
	}
	playlist.ID = res.InsertedID.(primitive.ObjectID)
	return playlist, nil
}

// FindByID fetches a playlist by its identifier.
func (r *MongoPlaylistRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Playlist, error) {
	var playlist models.Playlist
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&playlist); err != nil {
		return models.Playlist{}, mapReadErr(err, "select playlist by id")
	}
	return playlist, nil
}

// FindByOwnerAndName fetches the owner's playlist with the given name. Used
// for the uniqueness check before insert; the unique index closes the race.
func (r *MongoPlaylistRepository) FindByOwnerAndName(ctx context.Context, owner primitive.ObjectID, name string) (models.Playlist, error) {
	var playlist models.Playlist
	err := r.coll.FindOne(ctx, bson.M{"owner": owner, "name": name}).Decode(&playlist)
	if err != nil {
		return models.Playlist{}, mapReadErr(err, "select playlist by owner and name")
	}
	return playlist, nil
}

// Delete removes a playlist and returns the deleted record.
func (r *MongoPlaylistRepository) Delete(ctx context.Context, id primitive.ObjectID) (models.Playlist, error) {
	var playlist models.Playlist
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&playlist); err != nil {
		return models.Playlist{}, mapReadErr(err, "delete playlist")
	}
	return playlist, nil
}

// AddVideo inserts the video into the playlist's member set. $addToSet keeps
// the operation idempotent: re-adding an existing member changes nothing.
func (r *MongoPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID primitive.ObjectID) (models.Playlist, error) {
	return r.findOneAndUpdate(ctx, playlistID, bson.M{
		"$addToSet": bson.M{"videos": videoID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}, "add video to playlist")
}

// RemoveVideo pulls the video out of the playlist's member set.
func (r *MongoPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID primitive.ObjectID) (models.Playlist, error) {
	return r.findOneAndUpdate(ctx, playlistID, bson.M{
		"$pull": bson.M{"videos": videoID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}, "remove video from playlist")
}

func (r *MongoPlaylistRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M, op string) (models.Playlist, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var playlist models.Playlist
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&playlist); err != nil {
		return models.Playlist{}, mapReadErr(err, op)
	}
	return playlist, nil
}
