package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studymate-platform/internal/auth"
)

const (
	contextKeyClaims = "claims"
	contextKeyUserID = "user_id"
)

// RequireAuth validates the bearer token and stores the claims on the
// request context.
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error_code": "unauthorized",
				"message":    "Authentication token is required",
			})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(tokenString, []byte(jwtSecret))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error_code": "invalid_token",
				"message":    "Authentication token is invalid or expired",
			})
			c.Abort()
			return
		}

		c.Set(contextKeyClaims, claims)
		c.Set(contextKeyUserID, claims.UserID)
		c.Next()
	}
}

// GetUserID returns the authenticated user's id, or "" on
// unauthenticated requests.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(contextKeyUserID); exists {
		if str, ok := id.(string); ok {
			return str
		}
	}
	return ""
}

// GetClaims returns the full token claims when present.
func GetClaims(c *gin.Context) *auth.Claims {
	if raw, exists := c.Get(contextKeyClaims); exists {
		if claims, ok := raw.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
