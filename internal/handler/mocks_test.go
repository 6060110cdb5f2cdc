package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aulabook/seminar-reservation/internal/middleware"
	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/repository"
	"github.com/aulabook/seminar-reservation/internal/service"
	"github.com/aulabook/seminar-reservation/internal/validation"
)

// newEcho returns an echo instance configured like the router does.
func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.NewEchoValidator()
	e.HTTPErrorHandler = ErrorHandler(nil)
	return e
}

// as stands in for JWTAuth in handler tests.
func as(uid uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetIdentity(c, uid, role)
			return next(c)
		}
	}
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// ----- stores -----

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, username, email, password, role string, cost int) (uint64, error) {
	args := m.Called(ctx, username, email, password, role, cost)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUsers) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUsers) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockUsers) Tickets(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Ticket), args.Error(1)
}

func (m *mockUsers) Update(ctx context.Context, id uint64, u repository.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUsers) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return m.Called(ctx, userID, tokenHash, exp).Error(0)
}

func (m *mockTokens) Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uint64, error) {
	args := m.Called(ctx, oldHash, newHash, exp)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *mockTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockRooms struct{ mock.Mock }

func (m *mockRooms) Create(ctx context.Context, departmentID uint64, plan model.SeatPlan) (*model.Room, error) {
	args := m.Called(ctx, departmentID, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *mockRooms) List(ctx context.Context, vis repository.Visibility) ([]model.Room, error) {
	args := m.Called(ctx, vis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Room), args.Error(1)
}

func (m *mockRooms) Get(ctx context.Context, id uint64, vis repository.Visibility) (*model.Room, error) {
	args := m.Called(ctx, id, vis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *mockRooms) ListBySeminarOnDate(ctx context.Context, seminarID uint64, from, to time.Time, vis repository.Visibility) ([]model.Room, error) {
	args := m.Called(ctx, seminarID, from, to, vis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Room), args.Error(1)
}

func (m *mockRooms) UpdateSeatPlan(ctx context.Context, id uint64, plan model.SeatPlan) (*model.Room, error) {
	args := m.Called(ctx, id, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *mockRooms) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

type mockDepartments struct{ mock.Mock }

func (m *mockDepartments) Create(ctx context.Context, name string) (*model.Department, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *mockDepartments) List(ctx context.Context, vis repository.Visibility) ([]model.Department, error) {
	args := m.Called(ctx, vis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Department), args.Error(1)
}

func (m *mockDepartments) Get(ctx context.Context, id uint64, vis repository.Visibility) (*model.Department, error) {
	args := m.Called(ctx, id, vis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *mockDepartments) Rename(ctx context.Context, id uint64, name string) (*model.Department, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Department), args.Error(1)
}

func (m *mockDepartments) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

type mockSeminars struct{ mock.Mock }

func (m *mockSeminars) Create(ctx context.Context, s *model.Seminar) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSeminars) List(ctx context.Context) ([]model.Seminar, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Seminar), args.Error(1)
}

func (m *mockSeminars) Get(ctx context.Context, id uint64) (*model.Seminar, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Seminar), args.Error(1)
}

func (m *mockSeminars) Showing(ctx context.Context, now time.Time) ([]model.ShowingSeminar, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ShowingSeminar), args.Error(1)
}

func (m *mockSeminars) Update(ctx context.Context, s *model.Seminar) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSeminars) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

type mockShowtimes struct{ mock.Mock }

func (m *mockShowtimes) Get(ctx context.Context, id uint64) (*model.Showtime, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Showtime), args.Error(1)
}

func (m *mockShowtimes) List(ctx context.Context, vis repository.Visibility) ([]model.Showtime, error) {
	args := m.Called(ctx, vis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Showtime), args.Error(1)
}

func (m *mockShowtimes) Search(ctx context.Context, q repository.ShowtimeSearchQuery) ([]model.Showtime, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Showtime), args.Get(1).(int64), args.Error(2)
}

type mockAdmin struct{ mock.Mock }

func (m *mockAdmin) Create(ctx context.Context, in service.CreateShowtimes) ([]model.Showtime, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Showtime), args.Error(1)
}

func (m *mockAdmin) Update(ctx context.Context, id uint64, u repository.ShowtimeUpdate) (*model.Showtime, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Showtime), args.Error(1)
}

func (m *mockAdmin) SetReleased(ctx context.Context, ids []uint64, released bool) (int64, error) {
	args := m.Called(ctx, ids, released)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAdmin) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAdmin) DeleteMany(ctx context.Context, ids []uint64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAdmin) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAdmin) DeletePast(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockPurchaser struct{ mock.Mock }

func (m *mockPurchaser) Purchase(ctx context.Context, showtimeID uint64, codes []string, caller service.Caller) (*model.Showtime, *model.Ticket, error) {
	args := m.Called(ctx, showtimeID, codes, caller)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Showtime), args.Get(1).(*model.Ticket), args.Error(2)
}
