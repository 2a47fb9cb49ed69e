package handlers

import (
	"clinic-ehr-server/internal/authz"
	"clinic-ehr-server/internal/middleware"

	"github.com/gin-gonic/gin"
)

// getPrincipal assembles the authenticated principal from the gin context.
func getPrincipal(c *gin.Context) (authz.Principal, bool) {
	return middleware.GetPrincipal(c)
}

// actorEmail returns the authenticated user's email for audit entries.
func actorEmail(c *gin.Context) string {
	if email, ok := c.Get("userEmail"); ok {
		if emailStr, ok := email.(string); ok {
			return emailStr
		}
	}
	return "unknown"
}
