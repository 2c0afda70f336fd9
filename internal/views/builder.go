package views

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/backend/internal/repositories/errs"
)

// Builder runs the aggregation pipelines behind each read view.
type Builder struct {
	db *mongo.Database
}

// NewBuilder constructs a Builder over the provided database handle.
func NewBuilder(db *mongo.Database) *Builder {
	return &Builder{db: db}
}

// userSummaryProjection is the whitelist applied to embedded commenter/owner
// documents.
var userSummaryProjection = bson.M{
	"username": 1,
	"fullName": 1,
	"avatar":   1,
}

// videoSummaryProjection is the whitelist applied to embedded video documents.
var videoSummaryProjection = bson.M{
	"title":       1,
	"description": 1,
	"videoFile":   1,
	"thumbnail":   1,
	"duration":    1,
	"views":       1,
	"isPublished": 1,
	"owner":       1,
}

type facetResult[T any] struct {
	Total []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
	Items []T `bson:"items"`
}

// paginate appends a $facet stage producing the requested page alongside the
// total match count, so one round trip serves both.
func paginate(pipe mongo.Pipeline, req PageRequest) mongo.Pipeline {
	req = req.Normalized()
	return append(pipe, bson.D{{Key: "$facet", Value: bson.M{
		"total": bson.A{bson.M{"$count": "count"}},
		"items": bson.A{
			bson.M{"$skip": req.Skip()},
			bson.M{"$limit": req.Limit},
		},
	}}})
}

func runPaged[T any](ctx context.Context, coll *mongo.Collection, pipe mongo.Pipeline, req PageRequest) (Page[T], error) {
	cursor, err := coll.Aggregate(ctx, paginate(pipe, req))
	if err != nil {
		return Page[T]{}, fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var results []facetResult[T]
	if err := cursor.All(ctx, &results); err != nil {
		return Page[T]{}, fmt.Errorf("decode %s aggregation: %w", coll.Name(), err)
	}

	var total int64
	var items []T
	if len(results) > 0 {
		items = results[0].Items
		if len(results[0].Total) > 0 {
			total = results[0].Total[0].Count
		}
	}

	return NewPage(items, total, req), nil
}

func runAll[T any](ctx context.Context, coll *mongo.Collection, pipe mongo.Pipeline) ([]T, error) {
	cursor, err := coll.Aggregate(ctx, pipe)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var results []T
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode %s aggregation: %w", coll.Name(), err)
	}
	return results, nil
}

// VideoComments returns one page of a video's comments, each with its author
// summary and like count embedded. A video with no comments yields an empty
// page; callers are expected to have established the video exists.
func (b *Builder) VideoComments(ctx context.Context, videoID primitive.ObjectID, req PageRequest) (Page[CommentView], error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"video": videoID}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "owner",
			"foreignField": "_id",
			"as":           "commenter",
			"pipeline":     bson.A{bson.M{"$project": userSummaryProjection}},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "likes",
			"localField":   "_id",
			"foreignField": "comment",
			"as":           "likes",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"likesCount": bson.M{"$size": "$likes"},
			"commenter":  bson.M{"$first": "$commenter"},
		}}},
		{{Key: "$project", Value: bson.M{
			"content":    1,
			"createdAt":  1,
			"likesCount": 1,
			"commenter":  1,
		}}},
	}

	return runPaged[CommentView](ctx, b.db.Collection("comments"), pipe, req)
}

// LikedVideos returns the videos liked by the user, each carrying its owner
// and that owner's subscriber count.
func (b *Builder) LikedVideos(ctx context.Context, userID primitive.ObjectID) ([]LikedVideoEntry, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"likedBy": userID,
			"video":   bson.M{"$exists": true},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "videos",
			"localField":   "video",
			"foreignField": "_id",
			"as":           "videoDetails",
			"pipeline": bson.A{
				bson.M{"$project": videoSummaryProjection},
				bson.M{"$lookup": bson.M{
					"from":         "users",
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owners",
					"pipeline": bson.A{
						bson.M{"$lookup": bson.M{
							"from":         "subscriptions",
							"localField":   "_id",
							"foreignField": "channel",
							"as":           "subscribers",
						}},
						bson.M{"$addFields": bson.M{
							"subscribersCount": bson.M{"$size": "$subscribers"},
						}},
						bson.M{"$project": bson.M{
							"_id":              0,
							"username":         1,
							"fullName":         1,
							"avatar":           1,
							"subscribersCount": 1,
						}},
					},
				}},
				bson.M{"$addFields": bson.M{"ownerDetail": bson.M{"$first": "$owners"}}},
				bson.M{"$project": bson.M{"owners": 0}},
			},
		}}},
		{{Key: "$addFields", Value: bson.M{"video": bson.M{"$first": "$videoDetails"}}}},
		{{Key: "$project", Value: bson.M{"videoDetails": 0}}},
	}

	return runAll[LikedVideoEntry](ctx, b.db.Collection("likes"), pipe)
}

// playlistLookup embeds the member videos of a playlist as whitelisted
// summaries.
func playlistLookup() bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from":         "videos",
		"localField":   "videos",
		"foreignField": "_id",
		"as":           "videos",
		"pipeline":     bson.A{bson.M{"$project": videoSummaryProjection}},
	}}}
}

// PlaylistByID returns a single playlist with its videos embedded, or
// repositories.ErrNotFound when no such playlist exists.
func (b *Builder) PlaylistByID(ctx context.Context, id primitive.ObjectID) (PlaylistView, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		playlistLookup(),
	}

	results, err := runAll[PlaylistView](ctx, b.db.Collection("playlists"), pipe)
	if err != nil {
		return PlaylistView{}, err
	}
	if len(results) == 0 {
		return PlaylistView{}, errs.ErrNotFound
	}
	return results[0], nil
}

// PlaylistsByUser returns all playlists owned by the user. A user with no
// playlists yields an empty slice, not an error.
func (b *Builder) PlaylistsByUser(ctx context.Context, userID primitive.ObjectID) ([]PlaylistView, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"owner": userID}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
		playlistLookup(),
	}

	return runAll[PlaylistView](ctx, b.db.Collection("playlists"), pipe)
}

// VideoDetail returns one video with subscriber, like, and comment counts
// derived in a single pipeline, or repositories.ErrNotFound. Publication
// visibility is the caller's decision; the owner and published flag are
// projected for that purpose.
func (b *Builder) VideoDetail(ctx context.Context, videoID primitive.ObjectID) (VideoDetail, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": videoID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "subscriptions",
			"localField":   "owner",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "likes",
			"localField":   "_id",
			"foreignField": "video",
			"as":           "likes",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "comments",
			"localField":   "_id",
			"foreignField": "video",
			"as":           "comments",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"likesCount":       bson.M{"$size": "$likes"},
			"commentsCount":    bson.M{"$size": "$comments"},
			"subscribersCount": bson.M{"$size": "$subscribers"},
		}}},
		{{Key: "$project", Value: bson.M{
			"owner":            1,
			"title":            1,
			"description":      1,
			"videoFile":        1,
			"thumbnail":        1,
			"duration":         1,
			"views":            1,
			"isPublished":      1,
			"likesCount":       1,
			"commentsCount":    1,
			"subscribersCount": 1,
		}}},
	}

	results, err := runAll[VideoDetail](ctx, b.db.Collection("videos"), pipe)
	if err != nil {
		return VideoDetail{}, err
	}
	if len(results) == 0 {
		return VideoDetail{}, errs.ErrNotFound
	}
	return results[0], nil
}

// ChannelProfile returns the profile of the named channel with subscription
// counts and whether the viewer is among its subscribers, or
// repositories.ErrNotFound for an unknown username.
func (b *Builder) ChannelProfile(ctx context.Context, username string, viewerID primitive.ObjectID) (ChannelProfile, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "subscriptions",
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "subscriptions",
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscriberCount":   bson.M{"$size": "$subscribers"},
			"subscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewerID, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"username":          1,
			"fullName":          1,
			"email":             1,
			"avatar":            1,
			"coverImage":        1,
			"subscriberCount":   1,
			"subscribedToCount": 1,
			"isSubscribed":      1,
			"createdAt":         1,
		}}},
	}

	results, err := runAll[ChannelProfile](ctx, b.db.Collection("users"), pipe)
	if err != nil {
		return ChannelProfile{}, err
	}
	if len(results) == 0 {
		return ChannelProfile{}, errs.ErrNotFound
	}
	return results[0], nil
}

// WatchHistory expands the user's watch-history list into video summaries,
// each with its owner flattened in.
func (b *Builder) WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]HistoryEntry, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "videos",
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "watchHistory",
			"pipeline": bson.A{
				bson.M{"$project": videoSummaryProjection},
				bson.M{"$lookup": bson.M{
					"from":         "users",
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owners",
					"pipeline":     bson.A{bson.M{"$project": userSummaryProjection}},
				}},
				bson.M{"$addFields": bson.M{"ownerDetail": bson.M{"$first": "$owners"}}},
				bson.M{"$project": bson.M{"owners": 0}},
			},
		}}},
	}

	type historyDoc struct {
		WatchHistory []HistoryEntry `bson:"watchHistory"`
	}

	results, err := runAll[historyDoc](ctx, b.db.Collection("users"), pipe)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errs.ErrNotFound
	}
	return results[0].WatchHistory, nil
}
