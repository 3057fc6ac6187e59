package demo

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// writablePrefixes are the endpoints that keep accepting writes in demo mode
// so the login flow still works. Intentionally restrictive.
var writablePrefixes = []string{"/login", "/logout", "/api/auth/"}

// Middleware blocks mutating requests in demo mode so a public demo
// deployment stays intact. Reads always pass.
type Middleware struct {
	enabled bool
}

func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

// IsEnabled returns whether demo mode is active.
func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled || isRead(c.Request.Method) || isWritable(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "This action is disabled in demo mode",
			"code":      "demo_mode",
			"demo_mode": true,
		})
	}
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func isWritable(path string) bool {
	for _, prefix := range writablePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
