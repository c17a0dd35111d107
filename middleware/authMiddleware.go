package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"go-restaurant-pos/helpers"
	"go-restaurant-pos/logger"

	"github.com/gin-gonic/gin"
)

// Authentication requires a valid staff token in the "token" header and
// stores its claims on the context.
func Authentication(tokens *helpers.TokenHelper, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientToken := c.Request.Header.Get("token")
		if clientToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no authorization header provided"})
			return
		}
		claims, err := tokens.ValidateToken(clientToken)
		if err != nil {
			log.Debug("auth", "token rejected", slog.String("path", c.FullPath()), slog.String("reason", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("email", claims.Email)
		c.Set("name", claims.Name)
		c.Set("uid", claims.Uid)
		c.Set("user_role", claims.UserRole)
		c.Next()
	}
}

// RequireRole lets the request through only for the given roles. It must run
// after Authentication.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("user_role")
		if !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you do not have permission to perform this action"})
			return
		}
		c.Next()
	}
}
