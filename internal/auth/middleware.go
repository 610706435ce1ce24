package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware validates the Bearer JWT on every request and attaches the
// resulting Principal to the request context. Requests without a valid
// token are rejected with 401.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := ParseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}
