package middleware

import (
	"cardiocheck/pkg/utils"
	"github.com/gin-gonic/gin"
	"net/http"
	"strings"
	"time"
)

func JWTAuthMiddleware(secret []byte, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header missing or invalid")
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := utils.ValidateToken(secret, tokenString, now())
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.SubjectID())
		c.Next()
	}
}

// SameUserMiddleware rejects requests whose :userId path parameter does not
// match the authenticated user.
func SameUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.Param("userId"); id != "" && id != c.GetString("user_id") {
			utils.RespondError(c, http.StatusForbidden, "FORBIDDEN", "Forbidden: insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
