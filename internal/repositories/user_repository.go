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

// publicUserProjection excludes credential material from reads that feed
// responses or the request context.
var publicUserProjection = bson.M{
	"password":     0,
	"refreshToken": 0,
}

// MongoUserRepository provides MongoDB-backed persistence for users.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository constructs a user repository over the users collection.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(CollUsers)}
}

// Create persists a new user record. A username or email collision yields
// ErrConflict.
func (r *MongoUserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		return models.User{}, mapWriteErr(err, "insert user")
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

// FindByID fetches a user including credential fields. Reserved for the auth
// flows; everything else should use FindPublicByID.
func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return models.User{}, mapReadErr(err, "select user by id")
	}
	return user, nil
}

// FindPublicByID fetches a user with the password and refresh token excluded
// at the query level.
func (r *MongoUserRepository) FindPublicByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	opts := options.FindOne().SetProjection(publicUserProjection)
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&user)
	if err != nil {
		return models.User{}, mapReadErr(err, "select public user by id")
	}
	return user, nil
}

// FindByUsernameOrEmail fetches the account matching either identifier.
func (r *MongoUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}

	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return models.User{}, mapReadErr(err, "select user by username or email")
	}
	return user, nil
}

// UpdateAccount sets the full name and email, returning the updated record
// without credential fields. An email collision yields ErrConflict.
func (r *MongoUserRepository) UpdateAccount(ctx context.Context, id primitive.ObjectID, fullName, email string) (models.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"fullName": fullName, "email": email}, "update account")
}

// SetAvatar replaces the avatar reference.
func (r *MongoUserRepository) SetAvatar(ctx context.Context, id primitive.ObjectID, ref models.MediaRef) (models.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"avatar": ref}, "update avatar")
}

// SetCoverImage replaces the cover image reference.
func (r *MongoUserRepository) SetCoverImage(ctx context.Context, id primitive.ObjectID, ref models.MediaRef) (models.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"coverImage": ref}, "update cover image")
}

// SetPassword stores a new password hash.
func (r *MongoUserRepository) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := r.findOneAndSet(ctx, id, bson.M{"password": hash}, "update password")
	return err
}

// SetRefreshToken overwrites the stored refresh token. An empty token unsets
// the field, revoking all outstanding refresh tokens for the user.
func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	var update bson.M
	if token == "" {
		update = bson.M{"$unset": bson.M{"refreshToken": 1}}
	} else {
		update = bson.M{"$set": bson.M{"refreshToken": token}}
	}

	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return mapWriteErr(err, "update refresh token")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddWatchHistory appends the video to the user's watch history unless it is
// already present.
func (r *MongoUserRepository) AddWatchHistory(ctx context.Context, userID, videoID primitive.ObjectID) error {
	res, err := r.coll.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{"watchHistory": videoID},
	})
	if err != nil {
		return mapWriteErr(err, "append watch history")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PullWatchHistory removes the video from every user's watch history. Part of
// the video delete cascade.
func (r *MongoUserRepository) PullWatchHistory(ctx context.Context, videoID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"watchHistory": videoID},
		bson.M{"$pull": bson.M{"watchHistory": videoID}},
	)
	return mapWriteErr(err, "pull watch history")
}

func (r *MongoUserRepository) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M, op string) (models.User, error) {
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(publicUserProjection)

	var user models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, mapReadErr(err, op)
	}
	return user, nil
}
