package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/middleware"
	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/repository"
)

// DepartmentStore is implemented by *repository.DepartmentRepo.
type DepartmentStore interface {
	Create(ctx context.Context, name string) (*model.Department, error)
	List(ctx context.Context, vis repository.Visibility) ([]model.Department, error)
	Get(ctx context.Context, id uint64, vis repository.Visibility) (*model.Department, error)
	Rename(ctx context.Context, id uint64, name string) (*model.Department, error)
	Delete(ctx context.Context, id uint64) error
}

// DepartmentHandler serves /dip.
type DepartmentHandler struct {
	Departments DepartmentStore
	Log         *zap.Logger
}

func NewDepartmentHandler(d DepartmentStore, log *zap.Logger) *DepartmentHandler {
	if d == nil {
		panic("nil store passed to NewDepartmentHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DepartmentHandler{Departments: d, Log: log}
}

type departmentReq struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (h *DepartmentHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	deps, err := h.Departments.List(ctx, middleware.Visibility(c))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return okList(c, deps)
}

func (h *DepartmentHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	dep, err := h.Departments.Get(ctx, id, middleware.Visibility(c))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, dep)
}

func (h *DepartmentHandler) Create(c echo.Context) error {
	var req departmentReq
	if err := bind(c, &req); err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	dep, err := h.Departments.Create(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	h.Log.Info("department created", zap.Uint64("dip_id", dep.ID), zap.String("name", dep.Name))
	return ok(c, http.StatusCreated, dep)
}

// Rename handles PUT /dip/:id.
func (h *DepartmentHandler) Rename(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	var req departmentReq
	if err := bind(c, &req); err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	dep, err := h.Departments.Rename(ctx, id, strings.TrimSpace(req.Name))
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return ok(c, http.StatusOK, dep)
}

// Delete removes the department with its rooms and their showtimes.
func (h *DepartmentHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Departments.Delete(ctx, id); err != nil {
		return respondErr(c, h.Log, err)
	}
	h.Log.Info("department deleted", zap.Uint64("dip_id", id))
	return c.NoContent(http.StatusNoContent)
}
