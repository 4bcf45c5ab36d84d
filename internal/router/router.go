package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-seat-allocation/internal/config"
	"github.com/iliyamo/event-seat-allocation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/event-seat-allocation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAllocation registers the allocation API under /v1.  Every
// route requires a valid admin JWT: each occupancy change is recorded
// against the authenticated actor, so anonymous access would break the
// audit trail.  Force evictions are restricted to ADMIN; everything
// else accepts STAFF as well.
func RegisterAllocation(e *echo.Echo, a *handler.AllocationHandler, sm *handler.SeatMapHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "STAFF"),
	)

	// ---- Assignments ----
	g.POST("/assignments", a.AssignInitial)
	g.DELETE("/assignments/:booking_id", a.Cancel)

	// ---- Relocations ----
	// The relocate handler enforces the conflict protocol itself; the
	// force flag is additionally gated on the ADMIN role inside the
	// handler.
	g.POST("/relocations", a.Relocate)
	g.POST("/relocations/swap", a.Swap)

	// ---- History & verification ----
	g.GET("/relocations", a.History)
	g.GET("/bookings/:id/verify", a.VerifyBooking)

	// ---- Read views ----
	// Seat maps and availability are polled aggressively by open admin
	// screens, so they sit behind the Redis response cache.
	cached := g.Group("", middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	cached.GET("/events/:id/seatmap", sm.SeatMap)
	cached.GET("/availability", a.Availability)
}
