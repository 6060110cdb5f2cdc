package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/middleware"
	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/repository"
)

// RoomStore is implemented by *repository.RoomRepo.
type RoomStore interface {
	Create(ctx context.Context, departmentID uint64, plan model.SeatPlan) (*model.Room, error)
	List(ctx context.Context, vis repository.Visibility) ([]model.Room, error)
	Get(ctx context.Context, id uint64, vis repository.Visibility) (*model.Room, error)
	ListBySeminarOnDate(ctx context.Context, seminarID uint64, from, to time.Time, vis repository.Visibility) ([]model.Room, error)
	UpdateSeatPlan(ctx context.Context, id uint64, plan model.SeatPlan) (*model.Room, error)
	Delete(ctx context.Context, id uint64) error
}

// RoomHandler serves /aula.
type RoomHandler struct {
	Rooms RoomStore
	Log   *zap.Logger
}

func NewRoomHandler(r RoomStore, log *zap.Logger) *RoomHandler {
	if r == nil {
		panic("nil store passed to NewRoomHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomHandler{Rooms: r, Log: log}
}

type createRoomReq struct {
	Department uint64 `json:"dip" validate:"required"`
	Row        string `json:"row" validate:"required,rowbound"`
	Column     int    `json:"column" validate:"required,gte=1,lte=120"`
}

type seatPlanReq struct {
	Row    string `json:"row" validate:"required,rowbound"`
	Column int    `json:"column" validate:"required,gte=1,lte=120"`
}

func (h *RoomHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rooms, err := h.Rooms.List(ctx, middleware.Visibility(c))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return okList(c, rooms)
}

func (h *RoomHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	room, err := h.Rooms.Get(ctx, id, middleware.Visibility(c))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, room)
}

// BySeminarOnDate handles GET /aula/seminario/:sid/:date/:timezone: the
// rooms holding a showtime of the seminar on a calendar day of the client.
func (h *RoomHandler) BySeminarOnDate(c echo.Context) error {
	sid, err := parseID(c, "sid")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	offset, err := strconv.Atoi(c.Param("timezone"))
	if err != nil || offset < -14*60 || offset > 14*60 {
		return fail(c, http.StatusBadRequest, "invalid timezone")
	}
	from, to, err := localDay(c.Param("date"), offset)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid date")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rooms, err := h.Rooms.ListBySeminarOnDate(ctx, sid, from, to, middleware.Visibility(c))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return okList(c, rooms)
}

// localDay returns the UTC bounds of the client's calendar day named by
// raw.  offsetMin follows getTimezoneOffset: UTC minus local time, so
// UTC+1 is -60.  raw is either YYYY-MM-DD or an RFC 3339 instant, which is
// first moved into the client's zone.
func localDay(raw string, offsetMin int) (from, to time.Time, err error) {
	shift := time.Duration(offsetMin) * time.Minute
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		t, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			return time.Time{}, time.Time{}, err
		}
		local := t.UTC().Add(-shift)
		day = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	}
	from = day.Add(shift)
	return from, from.Add(24 * time.Hour), nil
}

func (h *RoomHandler) Create(c echo.Context) error {
	var req createRoomReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, h.Log, err)
	}
	req.Row = strings.ToUpper(strings.TrimSpace(req.Row))
	if err := c.Validate(&req); err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	room, err := h.Rooms.Create(ctx, req.Department, model.SeatPlan{Row: req.Row, Column: req.Column})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	h.Log.Info("room created",
		zap.Uint64("room_id", room.ID),
		zap.Uint64("dip_id", req.Department),
		zap.Int("number", room.Number))
	return ok(c, http.StatusCreated, room)
}

// UpdateSeatPlan handles PUT /aula/:id.
func (h *RoomHandler) UpdateSeatPlan(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	var req seatPlanReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, h.Log, err)
	}
	req.Row = strings.ToUpper(strings.TrimSpace(req.Row))
	if err := c.Validate(&req); err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	room, err := h.Rooms.UpdateSeatPlan(ctx, id, model.SeatPlan{Row: req.Row, Column: req.Column})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, room)
}

// Delete removes the room and every showtime in it.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Rooms.Delete(ctx, id); err != nil {
		return respondErr(c, h.Log, err)
	}
	h.Log.Info("room deleted", zap.Uint64("room_id", id))
	return c.NoContent(http.StatusNoContent)
}
