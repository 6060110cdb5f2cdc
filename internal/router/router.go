// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/config"
	"github.com/aulabook/seminar-reservation/internal/handler"
	"github.com/aulabook/seminar-reservation/internal/logging"
	"github.com/aulabook/seminar-reservation/internal/middleware"
	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/validation"
)

// Handlers groups every handler the router mounts.
type Handlers struct {
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Departments *handler.DepartmentHandler
	Rooms       *handler.RoomHandler
	Seminars    *handler.SeminarHandler
	Showtimes   *handler.ShowtimeHandler
}

// Options configures the shared middleware.  A nil Redis client turns
// caching and rate limiting off.
type Options struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Log       *zap.Logger
}

// chains holds the middleware stacks shared by the route groups.
type chains struct {
	read    []echo.MiddlewareFunc // public reads, cached unless the caller is admin
	anyone  []echo.MiddlewareFunc // bearer token optional, never cached
	authed  []echo.MiddlewareFunc // any logged-in user
	limited []echo.MiddlewareFunc // unauthenticated writes such as login
	buyer   []echo.MiddlewareFunc // purchases
	admin   []echo.MiddlewareFunc // admin writes, purge the cache
	adminRO []echo.MiddlewareFunc // admin reads
}

func newChains(o Options) chains {
	jwt := middleware.JWTAuth(o.JWTSecret)
	limit := middleware.NewTokenBucket(o.RateLimit, o.Redis, o.Log)
	purge := middleware.PurgeCache(o.Cache, o.Redis, o.Log)
	isAdmin := middleware.RequireRole(model.RoleAdmin)
	optional := middleware.OptionalJWT(o.JWTSecret)
	return chains{
		read:    []echo.MiddlewareFunc{optional, middleware.NewRedisCache(o.Cache, o.Redis, o.Log)},
		anyone:  []echo.MiddlewareFunc{optional},
		authed:  []echo.MiddlewareFunc{jwt},
		limited: []echo.MiddlewareFunc{limit},
		buyer:   []echo.MiddlewareFunc{jwt, middleware.RequireRole(model.RoleUser, model.RoleAdmin), limit, purge},
		admin:   []echo.MiddlewareFunc{jwt, isAdmin, limit, purge},
		adminRO: []echo.MiddlewareFunc{jwt, isAdmin},
	}
}

// New builds the API server.
func New(h Handlers, o Options) *echo.Echo {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.NewEchoValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(o.Log)
	e.Use(echomw.RequestID(), logging.RequestLogger(o.Log), echomw.Recover())

	ch := newChains(o)
	RegisterRoutes(e, h.Health)
	registerAuth(e, h.Auth, ch)
	registerCatalog(e, h, ch)
	registerShowtimes(e, h.Showtimes, ch)
	return e
}

// RegisterRoutes registers non-authenticated routes that sit outside the
// resource groups.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/health", h.Health)
	e.GET("/healthz", h.Health)
}

// registerAuth registers the /auth routes.
func registerAuth(e *echo.Echo, a *handler.AuthHandler, ch chains) {
	g := e.Group("/auth")
	g.POST("/register", a.Register, ch.limited...)
	g.POST("/login", a.Login, ch.limited...)
	g.POST("/refresh", a.Refresh, ch.limited...)
	// Logout accepts either a refresh token or a bearer token.
	g.POST("/logout", a.Logout, ch.anyone...)

	g.GET("/me", a.Me, ch.authed...)
	g.GET("/tickets", a.Tickets, ch.authed...)

	g.GET("/user", a.ListUsers, ch.adminRO...)
	g.PUT("/user/:id", a.UpdateUser, ch.admin...)
	g.DELETE("/user/:id", a.DeleteUser, ch.admin...)
}
