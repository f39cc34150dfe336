package server

import (
	"github.com/gin-gonic/gin"
)

// commonHeaders sets the security headers every response carries. HSTS is
// only sent outside development, where pages are served over HTTPS.
func commonHeaders(development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if !development {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; frame-ancestors 'self'; object-src 'none';")

		c.Next()
	}
}
