// Package middleware provides the echo middleware of the API: bearer
// authentication, role checks, the Redis response cache and the Redis
// token bucket rate limiter.
package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aulabook/seminar-reservation/internal/repository"
)

// Context keys set by the authentication middleware.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated user id, if any.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated role, or "" for anonymous callers.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// Visibility returns the read visibility of the caller.
func Visibility(c echo.Context) repository.Visibility {
	return repository.VisibilityFor(Role(c))
}

// SetIdentity stores an authenticated identity on c.
func SetIdentity(c echo.Context, userID uint64, role string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxRole, role)
}

// userKey renders the caller for cache and rate limit keys.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

func deny(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

