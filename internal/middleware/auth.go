// Package middleware provides the HTTP request middleware chain.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"codexai-go/internal/service"
	"codexai-go/pkg/database"
	"codexai-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware authenticates requests with a Bearer JWT, rejects
// blacklisted tokens and puts the full User object into the Gin context.
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "missing authorization header"})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "invalid authorization header format"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		// Tokens revoked by logout sit on the Redis blacklist until expiry.
		if database.RDB != nil {
			if exists, err := database.RDB.Exists(context.Background(), "blacklist:"+tokenString).Result(); err == nil && exists > 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "token has been revoked"})
				return
			}
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "invalid or expired token"})
			return
		}

		user, err := userService.GetProfile(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "user no longer exists"})
			return
		}

		c.Set("user", user)
		c.Set("claims", claims)
		c.Next()
	}
}
