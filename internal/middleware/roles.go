package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rise_local_back_end/internal/models"
)

// RequireVendor admits vendor staff and admins. Staff must carry a
// vendor_id claim.
func RequireVendor() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.GetString("role") {
		case models.RoleAdmin:
		case models.RoleVendor:
			if c.GetString("vendor_id") == "" {
				abort(c, http.StatusForbidden, "vendor account not linked to a business", "forbidden")
				return
			}
		default:
			abort(c, http.StatusForbidden, "vendor access only", "forbidden")
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleAdmin {
			abort(c, http.StatusForbidden, "admin access only", "forbidden")
			return
		}
		c.Next()
	}
}
