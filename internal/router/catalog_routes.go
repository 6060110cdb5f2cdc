package router

import (
	"github.com/labstack/echo/v4"
)

// registerCatalog registers departments (/dip), rooms (/aula) and seminars
// (/seminario).  Reads are public; admins see unreleased showtimes on the
// same routes.  Writes require the admin role.
func registerCatalog(e *echo.Echo, h Handlers, ch chains) {
	d := e.Group("/dip")
	d.GET("", h.Departments.List, ch.read...)
	d.GET("/:id", h.Departments.Get, ch.read...)
	d.POST("", h.Departments.Create, ch.admin...)
	d.PUT("/:id", h.Departments.Rename, ch.admin...)
	d.DELETE("/:id", h.Departments.Delete, ch.admin...)

	r := e.Group("/aula")
	r.GET("", h.Rooms.List, ch.read...)
	r.GET("/seminario/:sid/:date/:timezone", h.Rooms.BySeminarOnDate, ch.read...)
	r.GET("/:id", h.Rooms.Get, ch.read...)
	r.POST("", h.Rooms.Create, ch.admin...)
	r.PUT("/:id", h.Rooms.UpdateSeatPlan, ch.admin...)
	r.DELETE("/:id", h.Rooms.Delete, ch.admin...)

	s := e.Group("/seminario")
	s.GET("", h.Seminars.List, ch.read...)
	s.GET("/showing", h.Seminars.Showing, ch.read...)
	s.GET("/:id", h.Seminars.Get, ch.read...)
	s.POST("", h.Seminars.Create, ch.admin...)
	s.PUT("/:id", h.Seminars.Update, ch.admin...)
	s.DELETE("/:id", h.Seminars.Delete, ch.admin...)
}
