package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

// envelope is the uniform JSON body every endpoint returns. Errors embed the
// status code in the body as well as the status line for clients that ignore
// status codes.
type envelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

// apiError carries a handler-level failure with its HTTP status and optional
// field-level detail.
type apiError struct {
	status  int
	message string
	details []string
}

func (e *apiError) Error() string { return e.message }

func errBadRequest(message string, details ...string) error {
	return &apiError{status: http.StatusBadRequest, message: message, details: details}
}

func errUnauthorized(message string) error {
	return &apiError{status: http.StatusUnauthorized, message: message}
}

func errNotFound(message string) error {
	return &apiError{status: http.StatusNotFound, message: message}
}

func errConflict(message string) error {
	return &apiError{status: http.StatusConflict, message: message}
}

func errInternal(message string) error {
	return &apiError{status: http.StatusInternalServerError, message: message}
}

func errTooManyRequests(message string) error {
	return &apiError{status: http.StatusTooManyRequests, message: message}
}

// respond writes the success envelope.
func respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// respondError translates any failure into the uniform error envelope. Raw
// internal errors never reach the caller.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := logging.FromContext(ctx)

	status := http.StatusInternalServerError
	message := "internal server error"
	var details []string

	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.status
		message = apiErr.message
		details = apiErr.details
	case errors.Is(err, repositories.ErrNotFound):
		status = http.StatusNotFound
		message = "resource not found"
	case errors.Is(err, repositories.ErrConflict):
		status = http.StatusConflict
		message = "resource already exists"
	case errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
		message = "invalid or expired token"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request returned client error", "status", status, "error", err)
	}

	if details == nil {
		details = []string{}
	}

	writeJSON(ctx, w, status, envelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     details,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

// pageFromQuery reads page/limit query parameters. Missing or invalid values
// fall back to the pagination defaults rather than failing the request.
func pageFromQuery(r *http.Request) views.PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return views.PageRequest{Page: page, Limit: limit}.Normalized()
}
