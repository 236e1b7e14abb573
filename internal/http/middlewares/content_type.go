package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/sitehub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// RequireContentType rejects bodies on POST, PUT and PATCH whose media type
// is not one of allowed. Bodyless requests pass.
func RequireContentType(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}

			ct := strings.ToLower(c.GetHeader("Content-Type"))
			for _, a := range allowed {
				// allow "application/json; charset=utf-8"
				if strings.HasPrefix(ct, a) {
					c.Next()
					return
				}
			}

			handlers.RespondError(c, http.StatusUnsupportedMediaType, "unsupported_media_type",
				"Content-Type must be one of "+strings.Join(allowed, ", "), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
