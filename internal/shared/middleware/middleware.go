package middleware

import (
	"net/http"
	"strings"

	"busline/internal/shared/config"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const sessionTokenKey = "session_token"

// SessionAuth validates the bearer token that identifies a booking session.
// Holds and payment sessions are owned by this token; full user management
// lives in an external service.
func SessionAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})

		if err != nil || !token.Valid {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid token claims", nil, nil)
			c.Abort()
			return
		}

		sid, _ := claims["sid"].(string)
		if sid == "" {
			// Fall back to the standard subject claim
			sid, _ = claims["sub"].(string)
		}
		if sid == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "token carries no session identity", nil, nil)
			c.Abort()
			return
		}

		c.Set(sessionTokenKey, sid)
		c.Next()
	}
}

// SessionToken returns the session identity set by SessionAuth
func SessionToken(c *gin.Context) string {
	v, _ := c.Get(sessionTokenKey)
	token, _ := v.(string)
	return token
}
