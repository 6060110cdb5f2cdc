package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulabook/seminar-reservation/internal/handler"
	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/utils"
)

const secret = "router-secret"

// testServer mounts handlers without stores: every request in these tests
// is decided by middleware before a handler touches a store.
func testServer() http.Handler {
	return New(Handlers{
		Health:      handler.NewHealthHandler(nil, nil),
		Auth:        &handler.AuthHandler{},
		Departments: &handler.DepartmentHandler{},
		Rooms:       &handler.RoomHandler{},
		Seminars:    &handler.SeminarHandler{},
		Showtimes:   &handler.ShowtimeHandler{},
	}, Options{JWTSecret: secret})
}

func call(t *testing.T, srv http.Handler, method, path, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		tok, err := utils.NewAccessToken(secret, 1, role, 5)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	rec := call(t, testServer(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAdminRoutesNeedAdmin(t *testing.T) {
	srv := testServer()
	routes := []struct{ method, path string }{
		{http.MethodPost, "/dip"},
		{http.MethodPut, "/dip/1"},
		{http.MethodDelete, "/aula/1"},
		{http.MethodPost, "/seminario"},
		{http.MethodPost, "/showtime"},
		{http.MethodPut, "/showtime"},
		{http.MethodPut, "/showtime/3"},
		{http.MethodDelete, "/showtime"},
		{http.MethodDelete, "/showtime/previous"},
		{http.MethodGet, "/showtime/search"},
		{http.MethodGet, "/showtime/next-start"},
		{http.MethodGet, "/showtime/user/3"},
		{http.MethodGet, "/showtime/3/roster"},
		{http.MethodGet, "/auth/user"},
		{http.MethodDelete, "/auth/user/2"},
	}
	for _, r := range routes {
		assert.Equal(t, http.StatusUnauthorized, call(t, srv, r.method, r.path, "").Code, r.method+" "+r.path)
		assert.Equal(t, http.StatusForbidden, call(t, srv, r.method, r.path, model.RoleUser).Code, r.method+" "+r.path)
	}
}

func TestPurchaseNeedsLogin(t *testing.T) {
	rec := call(t, testServer(), http.MethodPost, "/showtime/3", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestInvalidBearerOnPublicRead(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/showtime", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	rec := call(t, testServer(), http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
