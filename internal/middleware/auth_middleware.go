package middleware

import (
	"net/http"
	"strings"

	"pjm/internal/auth"
	"pjm/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by JWTAuthMiddleware.
const (
	UserIDKey  = "user_id"
	AppRoleKey = "app_role"
)

// JWTAuthMiddleware rejects requests without a valid bearer token and stores
// the caller's id (uuid.UUID) and app role in the gin context.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := auth.ParseToken(secret, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(AppRoleKey, claims.AppRole)
		c.Next()
	}
}

// RequireAppRole lets through only callers whose application-wide role is
// one of allowed.
func RequireAppRole(allowed ...permission.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := permission.ParseRole(c.GetString(AppRoleKey))
		for _, r := range allowed {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
	}
}
