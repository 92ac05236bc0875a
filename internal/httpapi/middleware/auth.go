package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vaporchat/vaporchat/internal/auth"
	"github.com/vaporchat/vaporchat/internal/common"
)

const UserIDKey = "user_id"

// AuthRequired verifies the bearer token once per request and binds the
// user id to the request context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			common.Fail(c, http.StatusUnauthorized, 40101, "authentication token required")
			c.Abort()
			return
		}

		userID, err := auth.ParseJWT(token, secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
