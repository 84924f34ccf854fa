package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mabletask/companion/utils"
)

// ServiceUserID is the identity of callers authenticated by the service
// API key.
const ServiceUserID = 0

// Context keys set by AuthRequired.
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// AuthRequired accepts the X-API-KEY service key, a jwt_token cookie or a
// Bearer token. An empty serviceKey disables the key bypass.
func AuthRequired(issuer *utils.JWTIssuer, serviceKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader("X-API-KEY"); serviceKey != "" && key != "" &&
			subtle.ConstantTimeCompare([]byte(key), []byte(serviceKey)) == 1 {
			c.Set(UserIDKey, ServiceUserID)
			c.Set(UserEmailKey, "")
			c.Next()
			return
		}

		tokenString, err := c.Cookie("jwt_token")
		if err != nil || tokenString == "" {
			tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
			if tokenString == "" {
				slog.Debug("auth: no token in cookie or header", "path", c.FullPath())
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
				return
			}
		}

		claims, err := issuer.Validate(tokenString)
		if err != nil {
			slog.Info("auth: invalid token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated user id set by AuthRequired.
func UserID(c *gin.Context) int {
	return c.GetInt(UserIDKey)
}
