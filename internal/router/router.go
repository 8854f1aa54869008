package router // package router registers the HTTP routes of the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Identity *handler.IdentityHandler
	Booking  *handler.BookingHandler
	Session  *handler.SessionHandler
}

// Options carries the middleware settings.  A nil Redis client disables
// the response cache and the rate limiter.
type Options struct {
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// RegisterRoutes exposes the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated endpoints.  Only the show
// catalog entry is cached; occupancy and layout always read the ledger.
func RegisterPublic(e *echo.Echo, h Handlers, opt Options) {
	g := e.Group("/v1")
	g.POST("/users", h.Identity.Identify)
	g.GET("/shows/:id", h.Booking.GetShow, middleware.NewRedisCache(opt.Cache, opt.Redis))
	g.GET("/shows/:id/occupied", h.Booking.OccupiedSeats)
	g.GET("/shows/:id/seats", h.Booking.SeatLayout)
}

// RegisterCustomer registers the endpoints that need a customer token.
func RegisterCustomer(e *echo.Echo, h Handlers, opt Options) {
	g := e.Group("/v1",
		middleware.JWTAuth(opt.JWTSecret),
		middleware.RequireRole(utils.RoleCustomer),
		middleware.NewTokenBucket(opt.RateLimit, opt.Redis),
	)

	g.POST("/shows/:id/reserve", h.Booking.Reserve)
	g.GET("/my-bookings", h.Booking.MyBookings)
	g.GET("/bookings/:id", h.Booking.GetBooking)

	g.POST("/shows/:id/sessions", h.Session.Open)
	g.GET("/sessions/:id", h.Session.Get)
	g.PUT("/sessions/:id/seats/:seat", h.Session.SelectSeat)
	g.DELETE("/sessions/:id/seats/:seat", h.Session.DeselectSeat)
	g.POST("/sessions/:id/confirm", h.Session.Confirm)
	g.DELETE("/sessions/:id", h.Session.Discard)
}

// New builds the echo instance with every route registered.
func New(h Handlers, opt Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger())
	RegisterRoutes(e)
	RegisterPublic(e, h, opt)
	RegisterCustomer(e, h, opt)
	return e
}
