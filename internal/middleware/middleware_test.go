package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/utils"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := utils.GenerateJWT(u, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func serve(r *gin.Engine, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthRequired(secret, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "vendor_id": c.GetString("vendor_id")})
	})

	w := serve(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"unauthenticated"`)

	w = serve(r, http.MethodGet, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	vendorID := "v1"
	w = serve(r, http.MethodGet, "/me", token(t, &models.User{ID: "u1", Role: models.RoleVendor, VendorID: &vendorID}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u1","vendor_id":"v1"}`, w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/deals", OptionalAuth(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})

	assert.Equal(t, "", serve(r, http.MethodGet, "/deals", "").Body.String())
	assert.Equal(t, "u2", serve(r, http.MethodGet, "/deals", token(t, &models.User{ID: "u2"})).Body.String())
}

func TestRoleGates(t *testing.T) {
	r := gin.New()
	auth := AuthRequired(secret, nil)
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/vendor", auth, RequireVendor(), ok)
	r.GET("/admin", auth, RequireAdmin(), ok)

	vendorID := "v1"
	consumer := token(t, &models.User{ID: "c", Role: models.RoleConsumer})
	unlinked := token(t, &models.User{ID: "x", Role: models.RoleVendor})
	staff := token(t, &models.User{ID: "s", Role: models.RoleVendor, VendorID: &vendorID})
	admin := token(t, &models.User{ID: "a", Role: models.RoleAdmin})

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/vendor", consumer).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/vendor", unlinked).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/vendor", staff).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/vendor", admin).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", staff).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/admin", admin).Code)
}

func TestRateLimitWithoutRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.POST("/verify", VerifyRateLimit(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/verify", "").Code)
	}
}

func TestByEmailRestoresBody(t *testing.T) {
	r := gin.New()
	var key string
	r.POST("/login", func(c *gin.Context) {
		key = ByEmail(c)
		var body struct{ Email string }
		require.NoError(t, c.BindJSON(&body))
		c.String(http.StatusOK, body.Email)
	})
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":" Sam@Example.com "}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "sam@example.com", key)
	assert.Equal(t, " Sam@Example.com ", w.Body.String())
}

type auditRecorder struct{ actions []string }

func (a *auditRecorder) Record(_ context.Context, userID, action, _, resourceID, _ string) {
	a.actions = append(a.actions, userID+":"+action+":"+resourceID)
}

func TestAuditOnlyOnSuccess(t *testing.T) {
	rec := &auditRecorder{}
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "u1"); c.Next() })
	r.PUT("/deals/:id", Audit(rec, "deal.update", "deal"), func(c *gin.Context) {
		if c.Param("id") == "bad" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodPut, "/deals/d1", "")
	serve(r, http.MethodPut, "/deals/bad", "")
	assert.Equal(t, []string{"u1:deal.update:d1"}, rec.actions)
}
