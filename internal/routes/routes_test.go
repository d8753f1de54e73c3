package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rise_local_back_end/internal/config"
	"rise_local_back_end/internal/database"
	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/testsuit"
	"rise_local_back_end/internal/utils"
)

func sqlOnlyRouter(t *testing.T) (*gin.Engine, *config.Config, *database.Clients) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "routes-test-secret")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg := config.Load()
	clients := &database.Clients{SQL: testsuit.InitSQLite()}
	r := gin.New()
	require.NotPanics(t, func() { RegisterRoutes(r, cfg, clients) })
	return r, cfg, clients
}

func call(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_SQLOnly(t *testing.T) {
	r, cfg, clients := sqlOnlyRouter(t)

	user := testsuit.CreateUser(clients.SQL)
	token, err := utils.GenerateJWT(user, cfg.Auth.JWTSecret, time.Hour)
	require.NoError(t, err)

	t.Run("health and metrics", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health", "").Code)
		assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/metrics", "").Code)
	})

	t.Run("public catalog without token", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/deals", "").Code)
		assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/vendors", "").Code)
	})

	t.Run("protected routes need a token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/me", "").Code)
		assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/me", token).Code)
	})

	t.Run("pass billing unavailable without stripe", func(t *testing.T) {
		assert.Equal(t, http.StatusServiceUnavailable, call(r, http.MethodPost, "/api/pass/checkout", token).Code)
	})

	t.Run("messaging unavailable without scylla", func(t *testing.T) {
		assert.Equal(t, http.StatusServiceUnavailable, call(r, http.MethodGet, "/api/conversations", token).Code)
	})

	t.Run("role gates", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/vendor/deals", token).Code)
		assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/api/admin/vendors", token).Code)

		admin := testsuit.CreateUser(clients.SQL, func(u *models.User) { u.Role = models.RoleAdmin })
		adminToken, err := utils.GenerateJWT(admin, cfg.Auth.JWTSecret, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/admin/vendors", adminToken).Code)
	})
}
