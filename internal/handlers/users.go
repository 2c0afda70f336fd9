package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

const (
	refreshTokenCookie = "refreshToken"

	// maxUploadMemory bounds how much of a multipart body is buffered in
	// memory before spilling to disk.
	maxUploadMemory = 32 << 20
)

var validate = validator.New()

// UserHandler implements the account and session endpoints.
type UserHandler struct {
	Users   UserStore
	Tokens  TokenManager
	Media   MediaStore
	Views   ViewBuilder
	Limiter RateLimiter
}

type registerRequest struct {
	Username string `validate:"required,min=3,max=30,alphanum"`
	Email    string `validate:"required,email"`
	FullName string `validate:"required,max=100"`
	Password string `validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

type sessionResponse struct {
	User   models.User      `json:"user"`
	Tokens models.TokenPair `json:"tokens"`
}

// Register handles POST /users/register. The body is multipart form data
// carrying the account fields plus a required avatar image and an optional
// cover image.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, errTooManyRequests("too many registration attempts"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, errBadRequest("expected multipart form data"))
		return
	}

	req := registerRequest{
		Username: strings.ToLower(strings.TrimSpace(r.FormValue("username"))),
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		FullName: strings.TrimSpace(r.FormValue("fullName")),
		Password: r.FormValue("password"),
	}
	if err := validate.Struct(req); err != nil {
		respondError(ctx, w, errBadRequest("invalid registration details", validationDetails(err)...))
		return
	}

	if _, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email); err == nil {
		respondError(ctx, w, errConflict("username or email already registered"))
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, err)
		return
	}

	avatarFile, avatarHeader, err := r.FormFile("avatar")
	if err != nil {
		respondError(ctx, w, errBadRequest("avatar image is required"))
		return
	}
	defer avatarFile.Close()

	avatar, err := h.Media.Save(ctx, avatarHeader.Filename, avatarFile)
	if err != nil {
		respondError(ctx, w, fmt.Errorf("store avatar: %w", err))
		return
	}

	var cover models.MediaRef
	if coverFile, coverHeader, err := r.FormFile("coverImage"); err == nil {
		defer coverFile.Close()
		cover, err = h.Media.Save(ctx, coverHeader.Filename, coverFile)
		if err != nil {
			discardMedia(ctx, h.Media, avatar)
			respondError(ctx, w, fmt.Errorf("store cover image: %w", err))
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		discardMedia(ctx, h.Media, avatar, cover)
		respondError(ctx, w, fmt.Errorf("hash password: %w", err))
		return
	}

	user, err := h.Users.Create(ctx, models.User{
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   hash,
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		discardMedia(ctx, h.Media, avatar, cover)
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, errConflict("username or email already registered"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	logger.Info("user registered", "userId", user.ID.Hex(), "username", user.Username)
	respond(ctx, w, http.StatusCreated, user, "user registered")
}

// Login handles POST /users/login. Either the username or the email
// identifies the account; a successful login rotates the refresh token and
// sets both auth cookies.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, errTooManyRequests("too many login attempts"))
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, errBadRequest("invalid request body"))
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if (req.Username == "" && req.Email == "") || req.Password == "" {
		respondError(ctx, w, errBadRequest("username or email, and password are required"))
		return
	}

	user, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, errUnauthorized("invalid credentials"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		logger.Warn("login password mismatch", "userId", user.ID.Hex())
		respondError(ctx, w, errUnauthorized("invalid credentials"))
		return
	}

	tokens, err := h.Tokens.Rotate(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, tokens)
	user.Password = ""
	user.RefreshToken = ""

	logger.Info("user logged in", "userId", user.ID.Hex())
	respond(ctx, w, http.StatusOK, sessionResponse{User: user, Tokens: tokens}, "logged in")
}

// Logout handles POST /users/logout. Revoking clears the stored refresh
// token, so every outstanding refresh token for the user stops working.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	if err := h.Tokens.Revoke(ctx, user.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearAuthCookies(w)
	respond(ctx, w, http.StatusOK, nil, "logged out")
}

// Refresh handles POST /users/refresh. The refresh token comes from its
// cookie or the request body; a valid one is exchanged for a fresh pair,
// invalidating itself in the process.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "refresh") {
		respondError(ctx, w, errTooManyRequests("too many refresh attempts"))
		return
	}

	token := refreshTokenFromRequest(r)
	if token == "" {
		respondError(ctx, w, errUnauthorized("refresh token is required"))
		return
	}

	userID, err := h.Tokens.VerifyRefresh(ctx, token)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	tokens, err := h.Tokens.Rotate(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, tokens)
	respond(ctx, w, http.StatusOK, tokens, "session refreshed")
}

// ChangePassword handles PATCH /users/changePassword.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, errBadRequest("invalid request body"))
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, errBadRequest("old and new passwords are required"))
		return
	}
	if len(req.NewPassword) < 8 || len(req.NewPassword) > 72 {
		respondError(ctx, w, errBadRequest("new password must be between 8 and 72 characters"))
		return
	}

	// The context user was loaded without credential fields; fetch the full
	// record to compare against the current hash.
	record, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if !auth.CheckPassword(record.Password, req.OldPassword) {
		respondError(ctx, w, errUnauthorized("current password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(ctx, w, fmt.Errorf("hash password: %w", err))
		return
	}

	if err := h.Users.SetPassword(ctx, user.ID, hash); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, nil, "password changed")
}

// CurrentUser handles GET /users/getUser, echoing the session user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	respond(ctx, w, http.StatusOK, user, "current user")
}

// UpdateAccount handles PATCH /users/updateAccount.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, errBadRequest("invalid request body"))
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		respondError(ctx, w, errBadRequest("invalid account details", validationDetails(err)...))
		return
	}

	updated, err := h.Users.UpdateAccount(ctx, user.ID, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, errConflict("email already in use"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, updated, "account updated")
}

// UpdateAvatar handles PATCH /users/updateAvatar. The replaced object is
// removed from storage best effort once the new reference is persisted.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Users.SetAvatar, func(u models.User) models.MediaRef { return u.Avatar })
}

// UpdateCoverImage handles PATCH /users/updateCoverImage.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Users.SetCoverImage, func(u models.User) models.MediaRef { return u.CoverImage })
}

// ChannelProfile handles GET /users/c/{username}, the public channel page for
// the named user as seen by the session user.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, errBadRequest("username is required"))
		return
	}

	profile, err := h.Views.ChannelProfile(ctx, username, viewer.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, errNotFound("channel not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, profile, "channel profile")
}

// WatchHistory handles GET /users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	entries, err := h.Views.WatchHistory(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if entries == nil {
		entries = []views.HistoryEntry{}
	}

	respond(ctx, w, http.StatusOK, entries, "watch history")
}

type setImageFunc func(ctx context.Context, id primitive.ObjectID, ref models.MediaRef) (models.User, error)

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, set setImageFunc, current func(models.User) models.MediaRef) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		respondError(ctx, w, errUnauthorized("authentication required"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, errBadRequest("expected multipart form data"))
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondError(ctx, w, errBadRequest(field+" image is required"))
		return
	}
	defer file.Close()

	ref, err := h.Media.Save(ctx, header.Filename, file)
	if err != nil {
		respondError(ctx, w, fmt.Errorf("store %s: %w", field, err))
		return
	}

	updated, err := set(ctx, user.ID, ref)
	if err != nil {
		discardMedia(ctx, h.Media, ref)
		respondError(ctx, w, err)
		return
	}

	if old := current(user); old.Key != "" {
		if err := h.Media.Delete(ctx, old); err != nil {
			logger.Warn("failed to delete replaced media object", "key", old.Key, "error", err)
		}
	}

	respond(ctx, w, http.StatusOK, updated, field+" updated")
}

func setAuthCookies(w http.ResponseWriter, tokens models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
		return strings.TrimSpace(body.RefreshToken)
	}
	return ""
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
	return details
}
