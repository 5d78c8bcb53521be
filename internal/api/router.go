package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"fleet-rental-backend/internal/booking"
	"fleet-rental-backend/internal/mw"
	"fleet-rental-backend/internal/store"
)

// RouterConfig carries the knobs the router needs from the app config.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
	JWTSecret       string
}

// NewRouter creates and configures a new Gin router around the engine.
func NewRouter(engine *booking.Engine, s store.Store, webpushOptions *webpush.Options, cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(engine, s, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)
	invalidating := mw.Invalidate(cacheStore)

	staffOnly := mw.StaffAuth(cfg.JWTSecret)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Read-mostly CRUD around the engine
		api.GET("/hubs", caching, GetHubs(db))
		api.GET("/car-types", caching, GetCarTypes(db))

		// Availability resolver
		api.GET("/cars/available", caching, handler.GetAvailableCars)

		// Booking lifecycle
		api.POST("/bookings", invalidating, handler.CreateBooking)
		api.GET("/bookings/:id", handler.GetBooking)
		api.GET("/customers/:customer_id/bookings", handler.GetCustomerBookings)
		api.POST("/bookings/:id/confirm", handler.ConfirmBooking)
		api.POST("/bookings/:id/cancel", invalidating, handler.CancelBooking)

		// Physical exchange and maintenance are staff operations
		api.POST("/bookings/:id/handover", staffOnly, handler.HandoverBooking)
		api.POST("/bookings/:id/return", staffOnly, invalidating, handler.ReturnBooking)
		api.POST("/cars/:car_id/maintenance", staffOnly, invalidating, handler.ScheduleMaintenance)
		api.DELETE("/cars/:car_id/maintenance/:slot_id", staffOnly, invalidating, handler.CompleteMaintenance)

		// Web push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
