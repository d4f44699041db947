package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/editor"
	"github.com/patrickwarner/bannerforge/internal/encoder"
	"github.com/patrickwarner/bannerforge/internal/export"
	"github.com/patrickwarner/bannerforge/internal/models"
	"github.com/patrickwarner/bannerforge/internal/storage"
	"github.com/patrickwarner/bannerforge/internal/token"
)

// errUnavailable marks a feature whose backend is not configured.
var errUnavailable = errors.New("backend unavailable")

// errBadRequest marks malformed input that is not a domain error.
var errBadRequest = errors.New("bad request")

// errRateLimited is returned when a client has used up its export budget.
var errRateLimited = errors.New("export rate limit exceeded")

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, editor.ErrInvalidCommand),
		errors.Is(err, models.ErrInvalidProject),
		errors.Is(err, models.ErrInvalidSize),
		errors.Is(err, export.ErrInvalidDataURI),
		errors.Is(err, encoder.ErrUnsupported),
		errors.Is(err, encoder.ErrEmpty),
		errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, token.ErrInvalid), errors.Is(err, token.ErrExpired):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrLastVariation), errors.Is(err, editor.ErrLastFrame):
		return http.StatusConflict
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, export.ErrNoUnits):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the mapped status. Server errors are logged and
// their details withheld from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger(r).Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
