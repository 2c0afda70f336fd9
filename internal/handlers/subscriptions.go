package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/middleware"
)

// SubscriptionHandler implements the subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore
}

type toggleSubscriptionResponse struct {
	Subscribed       bool  `json:"subscribed"`
	SubscribersCount int64 `json:"subscribersCount"`
}

// Toggle handles POST /subscriptions/toggle/{channelId}. A first call
// subscribes the session user to the channel, a second unsubscribes.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	channelID, err := pathObjectID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if channelID == user.ID {
		respondError(ctx, w, errBadRequest("cannot subscribe to your own channel"))
		return
	}

	if _, err := h.Users.FindPublicByID(ctx, channelID); err != nil {
		respondError(ctx, w, err)
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, channelID, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	count, err := h.Subscriptions.CountByChannel(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, toggleSubscriptionResponse{
		Subscribed:       subscribed,
		SubscribersCount: count,
	}, "subscription toggled")
}
