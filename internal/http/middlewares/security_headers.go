package middlewares

import "github.com/gin-gonic/gin"

const (
	apiCSP     = "default-src 'none'; frame-ancestors 'none'"
	hstsHeader = "max-age=63072000; includeSubDomains"
)

// SecurityHeaders sets the headers a JSON API needs. HSTS is only sent when
// the API is served over TLS, which is also when session cookies are Secure.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", apiCSP)
		h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		if hsts {
			h.Set("Strict-Transport-Security", hstsHeader)
		}
		c.Next()
	}
}
