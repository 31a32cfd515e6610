package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/angeles-renjo/gasph-sub000/models"
)

// AdminKeyMiddleware guards the administrative endpoints (cycle reset,
// official price import) behind a shared key. An empty configured key
// disables the endpoints entirely rather than leaving them open.
func AdminKeyMiddleware(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader("X-Admin-Key")
		if adminKey == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(adminKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}
