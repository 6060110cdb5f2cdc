package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/model"
)

// SeminarStore is implemented by *repository.SeminarRepo.
type SeminarStore interface {
	Create(ctx context.Context, s *model.Seminar) error
	List(ctx context.Context) ([]model.Seminar, error)
	Get(ctx context.Context, id uint64) (*model.Seminar, error)
	Showing(ctx context.Context, now time.Time) ([]model.ShowingSeminar, error)
	Update(ctx context.Context, s *model.Seminar) error
	Delete(ctx context.Context, id uint64) error
}

// SeminarHandler serves /seminario.
type SeminarHandler struct {
	Seminars SeminarStore
	Log      *zap.Logger
	now      func() time.Time
}

func NewSeminarHandler(s SeminarStore, log *zap.Logger) *SeminarHandler {
	if s == nil {
		panic("nil store passed to NewSeminarHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SeminarHandler{Seminars: s, Log: log, now: time.Now}
}

type createSeminarReq struct {
	Name   string `json:"name" validate:"required,max=200"`
	Length int    `json:"length" validate:"required,gte=1,lte=1440"`
	Img    string `json:"img" validate:"omitempty,max=2048"`
}

type updateSeminarReq struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=200"`
	Length *int    `json:"length" validate:"omitempty,gte=1,lte=1440"`
	Img    *string `json:"img" validate:"omitempty,max=2048"`
}

// List returns every seminar, newest first.
func (h *SeminarHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Seminars.List(ctx)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return okList(c, list)
}

// Showing returns seminars with upcoming released showtimes.
func (h *SeminarHandler) Showing(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Seminars.Showing(ctx, h.now().UTC())
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return okList(c, list)
}

func (h *SeminarHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Seminars.Get(ctx, id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, s)
}

func (h *SeminarHandler) Create(c echo.Context) error {
	var req createSeminarReq
	if err := bind(c, &req); err != nil {
		return respondErr(c, h.Log, err)
	}
	s := &model.Seminar{
		Name:          strings.TrimSpace(req.Name),
		LengthMinutes: req.Length,
		PosterURL:     strings.TrimSpace(req.Img),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Seminars.Create(ctx, s); err != nil {
		return respondErr(c, h.Log, err)
	}
	h.Log.Info("seminar created", zap.Uint64("seminar_id", s.ID), zap.String("name", s.Name))
	return ok(c, http.StatusCreated, s)
}

// Update applies the fields present in the body.
func (h *SeminarHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	var req updateSeminarReq
	if err := bind(c, &req); err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Seminars.Get(ctx, id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	if req.Name != nil {
		s.Name = strings.TrimSpace(*req.Name)
	}
	if req.Length != nil {
		s.LengthMinutes = *req.Length
	}
	if req.Img != nil {
		s.PosterURL = strings.TrimSpace(*req.Img)
	}
	if err := h.Seminars.Update(ctx, s); err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, s)
}

// Delete removes the seminar and all of its showtimes.
func (h *SeminarHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Seminars.Delete(ctx, id); err != nil {
		return respondErr(c, h.Log, err)
	}
	h.Log.Info("seminar deleted", zap.Uint64("seminar_id", id))
	return c.NoContent(http.StatusNoContent)
}
