package app

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/views"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(database *mongo.Database, media *storage.S3Storage, cfg config.Config) handlers.Dependencies {
	users := repositories.NewMongoUserRepository(database)
	tokens := auth.NewTokenService(cfg.Tokens, users)

	return handlers.Dependencies{
		Users:         users,
		Tokens:        tokens,
		Videos:        repositories.NewMongoVideoRepository(database),
		Comments:      repositories.NewMongoCommentRepository(database),
		Likes:         repositories.NewMongoLikeRepository(database),
		Playlists:     repositories.NewMongoPlaylistRepository(database),
		Subscriptions: repositories.NewMongoSubscriptionRepository(database),
		Media:         media,
		Views:         views.NewBuilder(database),
		Limiter:       middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, cfg.RateLimit.TTL),
		Protect:       middleware.RequireSession(tokens, users),
	}
}
