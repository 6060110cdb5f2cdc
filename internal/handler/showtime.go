package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/export"
	"github.com/aulabook/seminar-reservation/internal/middleware"
	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/repository"
	"github.com/aulabook/seminar-reservation/internal/service"
)

// ShowtimeReader is the read side of *repository.ShowtimeRepo.
type ShowtimeReader interface {
	Get(ctx context.Context, id uint64) (*model.Showtime, error)
	List(ctx context.Context, vis repository.Visibility) ([]model.Showtime, error)
	Search(ctx context.Context, q repository.ShowtimeSearchQuery) ([]model.Showtime, int64, error)
}

// ShowtimeAdmin is implemented by *service.ShowtimeService.
type ShowtimeAdmin interface {
	Create(ctx context.Context, in service.CreateShowtimes) ([]model.Showtime, error)
	Update(ctx context.Context, id uint64, u repository.ShowtimeUpdate) (*model.Showtime, error)
	SetReleased(ctx context.Context, ids []uint64, released bool) (int64, error)
	Delete(ctx context.Context, id uint64) error
	DeleteMany(ctx context.Context, ids []uint64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeletePast(ctx context.Context) (int64, error)
}

// Purchaser is implemented by *service.BookingService.
type Purchaser interface {
	Purchase(ctx context.Context, showtimeID uint64, codes []string, caller service.Caller) (*model.Showtime, *model.Ticket, error)
}

// UserLookup resolves the purchasing user for the booking event.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// ShowtimeHandler serves /showtime.
type ShowtimeHandler struct {
	Showtimes ShowtimeReader
	Admin     ShowtimeAdmin
	Booking   Purchaser
	Users     UserLookup
	Log       *zap.Logger
}

func NewShowtimeHandler(r ShowtimeReader, a ShowtimeAdmin, b Purchaser, u UserLookup, log *zap.Logger) *ShowtimeHandler {
	if r == nil || a == nil || b == nil || u == nil {
		panic("nil dependency passed to NewShowtimeHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ShowtimeHandler{Showtimes: r, Admin: a, Booking: b, Users: u, Log: log}
}

// ----- DTOs -----

type createShowtimeReq struct {
	Seminar  uint64    `json:"seminario" validate:"required"`
	Room     uint64    `json:"aula" validate:"required"`
	Start    time.Time `json:"showtime" validate:"required"`
	Repeat   *int      `json:"repeat"`
	Released bool      `json:"isRelease"`
}

type purchaseReq struct {
	Seats []string `json:"seats" validate:"required,min=1,max=50,dive,seatcode"`
}

type updateShowtimeReq struct {
	Start    *time.Time `json:"showtime"`
	Room     *uint64    `json:"aula" validate:"omitempty,gt=0"`
	Seminar  *uint64    `json:"seminario" validate:"omitempty,gt=0"`
	Released *bool      `json:"isRelease"`
}

type bulkReleaseReq struct {
	IDs      []uint64 `json:"ids" validate:"required,min=1,dive,gt=0"`
	Released *bool    `json:"isRelease" validate:"required"`
}

// bulkDeleteReq tells an absent ids field (nil) from an empty list.
type bulkDeleteReq struct {
	IDs *[]uint64 `json:"ids"`
}

type purchaseResp struct {
	Showtime *model.Showtime `json:"showtime"`
	Ticket   *model.Ticket   `json:"ticket"`
}

// List returns the visible showtimes without seat owners.
func (h *ShowtimeHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Showtimes.List(ctx, middleware.Visibility(c))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	for i := range list {
		list[i].HideOwners()
	}
	return okList(c, list)
}

// Get returns one showtime with its seat map.  An unreleased showtime does
// not exist for anyone but admins.
func (h *ShowtimeHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Showtimes.Get(ctx, id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	if !st.IsReleased && !model.CanViewUnreleased(middleware.Role(c)) {
		return respondErr(c, h.Log, repository.ErrShowtimeNotFound)
	}
	st.HideOwners()
	return ok(c, http.StatusOK, st)
}

// WithOwners handles GET /showtime/user/:id: the seat map including who
// booked each seat (admin).
func (h *ShowtimeHandler) WithOwners(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Showtimes.Get(ctx, id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, st)
}

// Roster streams the attendance sheet of a showtime as XLSX (admin).
func (h *ShowtimeHandler) Roster(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Showtimes.Get(ctx, id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	data, err := export.Roster(st)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.Filename(st)+`"`)
	return c.Blob(http.StatusOK, export.ContentType, data)
}

// Search is the filterable admin view.  Query parameters: seminar (name
// substring), seminar_id, dip, aula, released, from, to (RFC 3339), page,
// page_size.
func (h *ShowtimeHandler) Search(c echo.Context) error {
	q := repository.ShowtimeSearchQuery{Seminar: strings.TrimSpace(c.QueryParam("seminar"))}
	var err error
	if q.SeminarID, err = queryUint(c, "seminar_id"); err != nil {
		return respondErr(c, h.Log, err)
	}
	if q.DepartmentID, err = queryUint(c, "dip"); err != nil {
		return respondErr(c, h.Log, err)
	}
	if q.RoomID, err = queryUint(c, "aula"); err != nil {
		return respondErr(c, h.Log, err)
	}
	if v := c.QueryParam("released"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return fail(c, http.StatusBadRequest, "invalid released")
		}
		q.Released = &b
	}
	if q.From, err = queryTime(c, "from"); err != nil {
		return respondErr(c, h.Log, err)
	}
	if q.To, err = queryTime(c, "to"); err != nil {
		return respondErr(c, h.Log, err)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	if page > repository.MaxSearchPage {
		page = repository.MaxSearchPage
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}
	q.Page, q.PageSize = page, ps

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Showtimes.Search(ctx, q)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	if items == nil {
		items = []model.Showtime{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"data":      items,
		"count":     len(items),
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

// NextStart proposes the start following the one in the query.
// Parameters: start (RFC 3339), length and gap in minutes, round 5 or 10.
func (h *ShowtimeHandler) NextStart(c echo.Context) error {
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "start must be an RFC 3339 time")
	}
	length, err := strconv.Atoi(c.QueryParam("length"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "length must be a number of minutes")
	}
	gap := 0
	if v := c.QueryParam("gap"); v != "" {
		if gap, err = strconv.Atoi(v); err != nil {
			return fail(c, http.StatusBadRequest, "gap must be a number of minutes")
		}
	}
	var nearest5, nearest10 bool
	switch c.QueryParam("round") {
	case "":
	case "5":
		nearest5 = true
	case "10":
		nearest10 = true
	default:
		return fail(c, http.StatusBadRequest, "round must be 5 or 10")
	}

	next, err := service.NextStart(start, length, gap, nearest5, nearest10)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"showtime": next})
}

// Create schedules one showtime per day for repeat days (default 1).
func (h *ShowtimeHandler) Create(c echo.Context) error {
	var req createShowtimeReq
	if err := bind(c, &req); err != nil {
		return respondErr(c, h.Log, err)
	}
	repeat := 1
	if req.Repeat != nil {
		repeat = *req.Repeat
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Admin.Create(ctx, service.CreateShowtimes{
		SeminarID:  req.Seminar,
		RoomID:     req.Room,
		Start:      req.Start,
		RepeatDays: repeat,
		Released:   req.Released,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": list, "count": len(list)})
}

// Purchase books seats for the authenticated user.
func (h *ShowtimeHandler) Purchase(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	uid, authed := middleware.UserID(c)
	if !authed {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req purchaseReq
	if err := bind(c, &req); err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	st, ticket, err := h.Booking.Purchase(ctx, id, req.Seats, service.Caller{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     middleware.Role(c),
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	st.HideOwners()
	return ok(c, http.StatusOK, purchaseResp{Showtime: st, Ticket: ticket})
}

// Update handles PUT /showtime/:id.
func (h *ShowtimeHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	var req updateShowtimeReq
	if err := bind(c, &req); err != nil {
		return respondErr(c, h.Log, err)
	}
	if req.Start == nil && req.Room == nil && req.Seminar == nil && req.Released == nil {
		return fail(c, http.StatusBadRequest, "nothing to update")
	}
	u := repository.ShowtimeUpdate{RoomID: req.Room, SeminarID: req.Seminar, IsReleased: req.Released}
	if req.Start != nil {
		t := req.Start.UTC()
		u.StartsAt = &t
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Admin.Update(ctx, id, u)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, st)
}

// BulkRelease handles PUT /showtime: {ids, isRelease}.
func (h *ShowtimeHandler) BulkRelease(c echo.Context) error {
	var req bulkReleaseReq
	if err := bind(c, &req); err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Admin.SetReleased(ctx, req.IDs, *req.Released)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"updated": n})
}

func (h *ShowtimeHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Admin.Delete(ctx, id); err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// BulkDelete handles DELETE /showtime.  Without an ids field every
// showtime goes; an empty ids list deletes nothing.
func (h *ShowtimeHandler) BulkDelete(c echo.Context) error {
	var req bulkDeleteReq
	if err := bind(c, &req); err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var (
		n   int64
		err error
	)
	if req.IDs == nil {
		n, err = h.Admin.DeleteAll(ctx)
	} else {
		for _, id := range *req.IDs {
			if id == 0 {
				return fail(c, http.StatusBadRequest, "ids must be positive")
			}
		}
		n, err = h.Admin.DeleteMany(ctx, *req.IDs)
	}
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"deleted": n})
}

// DeletePast handles DELETE /showtime/previous.
func (h *ShowtimeHandler) DeletePast(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Admin.DeletePast(ctx)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"deleted": n})
}

func queryUint(c echo.Context, name string) (uint64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

func queryTime(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be an RFC 3339 time")
	}
	t = t.UTC()
	return &t, nil
}
