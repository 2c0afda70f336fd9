package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Tokens        TokenManager
	Videos        VideoStore
	Comments      CommentStore
	Likes         LikeStore
	Playlists     PlaylistStore
	Subscriptions SubscriptionStore
	Media         MediaStore
	Views         ViewBuilder
	Limiter       RateLimiter

	// Protect wraps a handler with the session guard. Routes registered
	// through it reject requests lacking a valid access token.
	Protect func(http.Handler) http.Handler
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Users: deps.Users, Tokens: deps.Tokens, Media: deps.Media, Views: deps.Views, Limiter: deps.Limiter}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Comments: deps.Comments, Likes: deps.Likes, Subscriptions: deps.Subscriptions, Media: deps.Media, Views: deps.Views}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Views: deps.Views}
	likes := LikeHandler{Likes: deps.Likes, Videos: deps.Videos, Comments: deps.Comments, Views: deps.Views}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Views: deps.Views}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users}

	protect := deps.Protect
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}
	protected := func(h http.HandlerFunc) http.Handler { return protect(h) }

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /users/register", users.Register)
	mux.HandleFunc("POST /users/login", users.Login)
	mux.HandleFunc("POST /users/refresh", users.Refresh)
	mux.Handle("POST /users/logout", protected(users.Logout))
	mux.Handle("PATCH /users/changePassword", protected(users.ChangePassword))
	mux.Handle("GET /users/getUser", protected(users.CurrentUser))
	mux.Handle("PATCH /users/updateAccount", protected(users.UpdateAccount))
	mux.Handle("PATCH /users/updateAvatar", protected(users.UpdateAvatar))
	mux.Handle("PATCH /users/updateCoverImage", protected(users.UpdateCoverImage))
	mux.Handle("GET /users/c/{username}", protected(users.ChannelProfile))
	mux.Handle("GET /users/history", protected(users.WatchHistory))

	mux.Handle("GET /videos", protected(videos.List))
	mux.Handle("POST /videos/upload", protected(videos.Upload))
	mux.Handle("GET /videos/{videoId}", protected(videos.Detail))
	mux.Handle("PATCH /videos/{videoId}", protected(videos.Update))
	mux.Handle("DELETE /videos/{videoId}", protected(videos.Delete))
	mux.Handle("PATCH /videos/{videoId}/togglePublished", protected(videos.TogglePublished))

	mux.Handle("GET /comments/{videoId}", protected(comments.ListForVideo))
	mux.Handle("POST /comments/{videoId}", protected(comments.Create))
	mux.Handle("PATCH /comments/{commentId}", protected(comments.Update))
	mux.Handle("DELETE /comments/{commentId}", protected(comments.Delete))

	mux.Handle("POST /likes/toggle-like/{targetId}", protected(likes.Toggle))
	mux.Handle("GET /likes/likes-count", protected(likes.LikedVideos))

	mux.Handle("POST /playLists", protected(playlists.Create))
	mux.Handle("GET /playLists/{playListId}", protected(playlists.GetByID))
	mux.Handle("DELETE /playLists/{playListId}", protected(playlists.Delete))
	mux.Handle("GET /playLists/user/{userId}", protected(playlists.GetByUser))
	mux.Handle("PATCH /playLists/add/{videoId}/{playListId}", protected(playlists.AddVideo))
	mux.Handle("PATCH /playLists/remove/{videoId}/{playListId}", protected(playlists.RemoveVideo))

	mux.Handle("POST /subscriptions/toggle/{channelId}", protected(subscriptions.Toggle))
}
