// Package handler holds the echo handlers of the API.  Every response uses
// the same envelope: {"success":true,"data":...} on success and
// {"success":false,"message":...} on failure.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/repository"
	"github.com/aulabook/seminar-reservation/internal/schedule"
	"github.com/aulabook/seminar-reservation/internal/seatplan"
	"github.com/aulabook/seminar-reservation/internal/service"
	"github.com/aulabook/seminar-reservation/internal/utils"
	"github.com/aulabook/seminar-reservation/internal/validation"
)

// requestTimeout bounds the store calls of one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func okList[T any](c echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": items, "count": len(items)})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// badRequest lists the domain errors whose message is shown to the caller
// with a 400.
var badRequest = []error{
	seatplan.ErrInvalidSeat,
	seatplan.ErrSeatUnavailable,
	seatplan.ErrMalformedSeat,
	seatplan.ErrDuplicateSeat,
	seatplan.ErrNoSeats,
	seatplan.ErrInvalidPlan,
	schedule.ErrInvalidRepeatCount,
	schedule.ErrConflictingRounding,
	schedule.ErrNegativeDuration,
	service.ErrInvalidInput,
	utils.ErrPasswordTooShort,
}

var conflicts = []error{
	repository.ErrConflict,
	repository.ErrDepartmentExists,
	repository.ErrUsernameExists,
	repository.ErrEmailExists,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondErr writes the error response for err.  Unknown errors are logged
// and reported as a generic 500.
func respondErr(c echo.Context, log *zap.Logger, err error) error {
	var (
		verr *validation.Error
		herr *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return fail(c, http.StatusBadRequest, verr.Error())
	case errors.As(err, &herr):
		return fail(c, herr.Code, fmt.Sprint(herr.Message))
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case isAny(err, badRequest):
		return fail(c, http.StatusBadRequest, err.Error())
	case isAny(err, conflicts):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrInvalidRefresh):
		return fail(c, http.StatusUnauthorized, err.Error())
	}
	if log != nil {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Error(err))
	}
	return fail(c, http.StatusInternalServerError, "internal server error")
}

// ErrorHandler renders errors returned past the handlers, such as unknown
// routes, in the response envelope.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		_ = respondErr(c, log, err)
	}
}

// bind decodes the request body into dst and validates it.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
