package router

import (
	"github.com/labstack/echo/v4"

	"github.com/aulabook/seminar-reservation/internal/handler"
)

// registerShowtimes registers /showtime.  Static segments (search,
// next-start, previous, user) take precedence over /:id in echo's router.
func registerShowtimes(e *echo.Echo, h *handler.ShowtimeHandler, ch chains) {
	g := e.Group("/showtime")

	g.GET("", h.List, ch.read...)
	g.GET("/:id", h.Get, ch.read...)

	g.GET("/search", h.Search, ch.adminRO...)
	g.GET("/next-start", h.NextStart, ch.adminRO...)
	g.GET("/user/:id", h.WithOwners, ch.adminRO...)
	g.GET("/:id/roster", h.Roster, ch.adminRO...)

	g.POST("/:id", h.Purchase, ch.buyer...)

	g.POST("", h.Create, ch.admin...)
	g.PUT("", h.BulkRelease, ch.admin...)
	g.PUT("/:id", h.Update, ch.admin...)
	g.DELETE("", h.BulkDelete, ch.admin...)
	g.DELETE("/previous", h.DeletePast, ch.admin...)
	g.DELETE("/:id", h.Delete, ch.admin...)
}
