package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"fleet-rental-backend/internal/booking"
	"fleet-rental-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine  *booking.Engine
	store   store.Store
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(engine *booking.Engine, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		engine:  engine,
		store:   s,
		webpush: webpushOptions,
	}
}

// statusFor maps engine errors onto HTTP status codes. Conflicts and illegal
// transitions are client errors the caller resolves by re-querying; lock
// contention is transient and safe to retry.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, booking.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, booking.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
