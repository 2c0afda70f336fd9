package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrInvalidToken indicates the presented token failed verification: bad
	// signature, expired, unknown user, or it no longer matches the stored value.
	ErrInvalidToken = errors.New("invalid token")
)

// CredentialStore persists the identity and current refresh token of a user.
type CredentialStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
}

// TokenService issues and verifies the access/refresh token pair. Exactly one
// refresh token is live per user: rotating persists the new value over the old
// one, which invalidates every previously issued refresh token.
type TokenService struct {
	cfg   config.TokenConfig
	creds CredentialStore

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// NewTokenService constructs a TokenService backed by the provided store.
func NewTokenService(cfg config.TokenConfig, creds CredentialStore) *TokenService {
	if creds == nil {
		panic("auth: credential store must not be nil")
	}
	return &TokenService{cfg: cfg, creds: creds}
}

// IssueAccess mints a short-lived signed token for the user.
func (s *TokenService) IssueAccess(userID primitive.ObjectID) (string, error) {
	return s.sign(userID, s.cfg.AccessSecret, s.cfg.AccessTTL)
}

// IssueRefresh mints a longer-lived signed token for the user.
func (s *TokenService) IssueRefresh(userID primitive.ObjectID) (string, error) {
	return s.sign(userID, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
}

// Rotate generates a fresh token pair and persists the new refresh token on
// the user record, overwriting any prior value.
func (s *TokenService) Rotate(ctx context.Context, userID primitive.ObjectID) (models.TokenPair, error) {
	access, err := s.IssueAccess(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.IssueRefresh(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.creds.SetRefreshToken(ctx, userID, refresh); err != nil {
		return models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess checks the signature and expiry of an access token and returns
// the user it was issued to.
func (s *TokenService) VerifyAccess(token string) (primitive.ObjectID, error) {
	return s.parse(token, s.cfg.AccessSecret)
}

// VerifyRefresh fully validates a refresh token: signature and expiry, the
// user must still exist, still hold a refresh token, and the presented token
// must byte-equal the stored value. A mismatch means the token was rotated
// out and is treated as invalid.
func (s *TokenService) VerifyRefresh(ctx context.Context, token string) (primitive.ObjectID, error) {
	userID, err := s.parse(token, s.cfg.RefreshSecret)
	if err != nil {
		return primitive.NilObjectID, err
	}

	user, err := s.creds.FindByID(ctx, userID)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}
	if user.RefreshToken == "" {
		return primitive.NilObjectID, ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(token)) != 1 {
		return primitive.NilObjectID, ErrInvalidToken
	}

	return userID, nil
}

// Revoke clears the stored refresh token, invalidating every outstanding
// refresh token for the user.
func (s *TokenService) Revoke(ctx context.Context, userID primitive.ObjectID) error {
	return s.creds.SetRefreshToken(ctx, userID, "")
}

func (s *TokenService) sign(userID primitive.ObjectID, secret string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *TokenService) parse(token, secret string) (primitive.ObjectID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return primitive.NilObjectID, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return primitive.NilObjectID, ErrInvalidToken
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}

	return userID, nil
}

func (s *TokenService) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
