package testsuit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"rise_local_back_end/internal/models"
)

const userHeader = "X-Test-User"

// Router returns a gin engine that authenticates each request as the user
// whose id is sent in the X-Test-User header, the way the JWT middleware
// would.
func Router(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		id := c.GetHeader(userHeader)
		if id == "" {
			c.Next()
			return
		}
		var u models.User
		if err := db.First(&u, "id = ?", id).Error; err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("user_id", u.ID)
		c.Set("email", u.Email)
		c.Set("role", u.Role)
		if u.VendorID != nil {
			c.Set("vendor_id", *u.VendorID)
		}
		c.Next()
	})
	return r
}

// Do sends body as JSON when it is not nil. An empty userID sends an
// anonymous request.
func Do(r http.Handler, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		must(err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a recorded JSON response into a generic map.
func Decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	must(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
