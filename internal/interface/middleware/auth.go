package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/clientsphere/internal/domain/identity"
	"github.com/oksasatya/clientsphere/pkg/helpers"
	"github.com/oksasatya/clientsphere/pkg/response"
)

const (
	accessCookie    = "access_token"
	sessionKeySpace = "user:session:"
)

func bearerToken(c *gin.Context) string {
	if token, err := c.Cookie(accessCookie); err == nil && token != "" {
		return token
	}
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Auth verifies the access token (cookie or Bearer header). Tokens bound to a
// session (sid claim) additionally require that session to still exist in
// Redis when rdb is set. The verified caller is attached to the request
// context for the engine.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", err.Error())
			return
		}

		caller := identity.Caller{UserID: claims.UserID, Email: claims.Email, Name: claims.Name}
		if rdb != nil && claims.SessionID != "" {
			// Retrieve session from Redis as a hash
			data, err := rdb.HGetAll(c.Request.Context(), sessionKeySpace+claims.UserID).Result()
			if err != nil || len(data) == 0 {
				response.Abort(c, http.StatusUnauthorized, "session not found", nil)
				return
			}
			if data["sid"] != claims.SessionID {
				response.Abort(c, http.StatusUnauthorized, "session revoked", nil)
				return
			}
			if v := data["email"]; v != "" {
				caller.Email = v
			}
			if v := data["name"]; v != "" {
				caller.Name = v
			}
		}

		c.Request = c.Request.WithContext(identity.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}
