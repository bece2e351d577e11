package middleware

import (
	"conference-plugins/internal/reqstate"

	"github.com/gin-gonic/gin"
)

// RequestState gives every request its own hook state. Nothing set during
// one request is visible to another.
func RequestState() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := reqstate.WithState(c.Request.Context(), reqstate.New())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
