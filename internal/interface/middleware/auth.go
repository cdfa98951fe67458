package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/starfolio/starfolio-api/pkg/helpers"
	"github.com/starfolio/starfolio-api/pkg/response"
)

// Auth validates the access token cookie and ensures an active session
// exists in Redis. The session id embedded in the token has to match the
// one stored for the user, so a refresh rotation invalidates older tokens.
// On success it sets userID, userName, and userEmail in the Gin context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.Fail(c, http.StatusUnauthorized, "Unauthorized", "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, "Unauthorized", "invalid access token", nil)
			c.Abort()
			return
		}

		key := "user:session:" + claims.UserID
		data, err := rdb.HGetAll(c.Request.Context(), key).Result()
		if err != nil || len(data) == 0 {
			response.Fail(c, http.StatusUnauthorized, "Unauthorized", "session not found", nil)
			c.Abort()
			return
		}
		if sid := data["sid"]; sid != "" && sid != claims.SessionID {
			response.Fail(c, http.StatusUnauthorized, "Unauthorized", "session superseded", nil)
			c.Abort()
			return
		}

		c.Set("userID", data["user_id"])
		c.Set("userName", data["name"])
		c.Set("userEmail", data["email"])
		c.Next()
	}
}
