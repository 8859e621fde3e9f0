package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"libraryhub/pkg/models"
)

const CtxUserIDKey = "user_id"
const CtxUsernameKey = "username"
const CtxRoleKey = "role"

func RequireJWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(h, "Bearer ")
		claims, err := ParseJWT(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUsernameKey, claims.Username)
		c.Set(CtxRoleKey, string(claims.Role))
		c.Next()
	}
}

// Require gates a route on a single capability check instead of per-handler
// role branching. Must run after RequireJWT.
func Require(perm Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.Role(c.GetString(CtxRoleKey))
		if !Allowed(role, perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
