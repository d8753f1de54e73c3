package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

type Auditor interface {
	Record(ctx context.Context, userID, action, resourceType, resourceID, details string)
}

// Audit records action against the :id route parameter once the handler
// answers with a 2xx status.
func Audit(a Auditor, action, resourceType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if a == nil {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}
		details := c.Request.Method + " " + c.FullPath() + " from " + c.ClientIP()
		a.Record(c.Request.Context(), c.GetString("user_id"), action, resourceType, c.Param("id"), details)
	}
}
