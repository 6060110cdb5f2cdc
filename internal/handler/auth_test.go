package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aulabook/seminar-reservation/internal/config"
	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/repository"
	"github.com/aulabook/seminar-reservation/internal/utils"
)

var testCfg = config.Config{JWTSecret: "test-secret", AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: bcrypt.MinCost}

func authRoutes(users *mockUsers, tokens *mockTokens) *echo.Echo {
	h := NewAuthHandler(testCfg, users, tokens, nil)
	e := newEcho()
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.POST("/auth/logout", h.Logout)
	e.POST("/auth/logout-all", h.Logout, as(7, model.RoleUser))
	e.GET("/auth/me", h.Me, as(7, model.RoleUser))
	e.PUT("/auth/user/:id", h.UpdateUser, as(1, model.RoleAdmin))
	return e
}

func TestRegister_IssuesTokensForUserRole(t *testing.T) {
	users, tokens := new(mockUsers), new(mockTokens)
	users.On("Create", mock.Anything, "anna", "anna@example.com", "password1", model.RoleUser, bcrypt.MinCost).
		Return(uint64(7), nil)
	tokens.On("StoreRefresh", mock.Anything, uint64(7), mock.AnythingOfType("string"), mock.Anything).Return(nil)

	rec := serve(authRoutes(users, tokens), http.MethodPost, "/auth/register",
		`{"username":"anna","email":"Anna@Example.com","password":"password1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResp
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &resp))
	assert.Equal(t, uint64(7), resp.User.ID)
	assert.Equal(t, model.RoleUser, resp.User.Role)
	id, err := utils.ParseAccessToken(testCfg.JWTSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id.UserID)
	assert.NotEmpty(t, resp.Refresh.Raw)
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"admin role", `{"username":"anna","email":"a@example.com","password":"password1","role":"admin"}`, nil, http.StatusBadRequest},
		{"short password", `{"username":"anna","email":"a@example.com","password":"short"}`, nil, http.StatusBadRequest},
		{"bad email", `{"username":"anna","email":"nope","password":"password1"}`, nil, http.StatusBadRequest},
		{"taken username", `{"username":"anna","email":"a@example.com","password":"password1"}`, repository.ErrUsernameExists, http.StatusConflict},
		{"taken email", `{"username":"anna","email":"a@example.com","password":"password1"}`, repository.ErrEmailExists, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users, tokens := new(mockUsers), new(mockTokens)
			if tc.err != nil {
				users.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(uint64(0), tc.err)
			}
			rec := serve(authRoutes(users, tokens), http.MethodPost, "/auth/register", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.False(t, decode(t, rec).Success)
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("password1", bcrypt.MinCost)
	require.NoError(t, err)
	users, tokens := new(mockUsers), new(mockTokens)
	users.On("GetByUsername", mock.Anything, "anna").
		Return(&model.User{ID: 7, Username: "anna", Email: "anna@example.com", PasswordHash: hash, Role: model.RoleUser}, nil)
	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, repository.ErrUserNotFound)
	tokens.On("StoreRefresh", mock.Anything, uint64(7), mock.Anything, mock.Anything).Return(nil)
	e := authRoutes(users, tokens)

	rec := serve(e, http.MethodPost, "/auth/login", `{"username":"anna","password":"password1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodPost, "/auth/login", `{"username":"anna","password":"wrong-one"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodPost, "/auth/login", `{"username":"ghost","password":"password1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode(t, rec).Message)
}

func TestRefresh(t *testing.T) {
	users, tokens := new(mockUsers), new(mockTokens)
	tokens.On("Rotate", mock.Anything, utils.HashRefreshRaw("good"), mock.Anything, mock.Anything).Return(uint64(7), nil)
	tokens.On("Rotate", mock.Anything, utils.HashRefreshRaw("stale"), mock.Anything, mock.Anything).
		Return(uint64(0), repository.ErrInvalidRefresh)
	users.On("GetByID", mock.Anything, uint64(7)).Return(&model.User{ID: 7, Role: model.RoleAdmin}, nil)
	e := authRoutes(users, tokens)

	rec := serve(e, http.MethodPost, "/auth/refresh", `{"refresh_token":"good"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp authResp
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &resp))
	id, err := utils.ParseAccessToken(testCfg.JWTSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, id.Role)

	rec = serve(e, http.MethodPost, "/auth/refresh", `{"refresh_token":"stale"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodPost, "/auth/refresh", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	users, tokens := new(mockUsers), new(mockTokens)
	tokens.On("RevokeByHash", mock.Anything, utils.HashRefreshRaw("raw")).Return(nil).Once()
	tokens.On("RevokeAllForUser", mock.Anything, uint64(7)).Return(nil).Once()
	e := authRoutes(users, tokens)

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/auth/logout", `{"refresh_token":"raw"}`).Code)
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/auth/logout-all", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/auth/logout", `{}`).Code)
	tokens.AssertExpectations(t)
}

func TestMe(t *testing.T) {
	users := new(mockUsers)
	users.On("GetByID", mock.Anything, uint64(7)).
		Return(&model.User{ID: 7, Username: "anna", PasswordHash: "secret-hash"}, nil)

	rec := serve(authRoutes(users, new(mockTokens)), http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"anna"`)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
}

func TestUpdateUser(t *testing.T) {
	users := new(mockUsers)
	role := model.RoleAdmin
	users.On("Update", mock.Anything, uint64(9), repository.UserUpdate{Role: &role}).
		Return(&model.User{ID: 9, Role: model.RoleAdmin}, nil)
	e := authRoutes(users, new(mockTokens))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPut, "/auth/user/9", `{"role":"admin"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPut, "/auth/user/9", `{"role":"root"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPut, "/auth/user/9", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPut, "/auth/user/abc", `{"role":"admin"}`).Code)
	users.AssertExpectations(t)
}
