package middleware

import (
	"net/http"

	"codexai-go/internal/model"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware rejects non-admin users. It must run after
// AuthMiddleware.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "user not resolved"})
			return
		}

		currentUser, ok := user.(*model.User)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "unexpected user type"})
			return
		}

		if currentUser.Role != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": 403, "message": "admin privileges required"})
			return
		}
		c.Next()
	}
}
