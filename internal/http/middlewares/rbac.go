package middlewares

import (
	"log/slog"

	"github.com/geocoder89/sitehub/internal/actorctx"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// RequireRole admits callers whose role is one of allowed. Roles are flat:
// superAdmin is not implicitly an admin.
//
// It must run after RequireSession. A missing identity is a wiring bug and
// panics; the recovery middleware turns that into a 500.
func RequireRole(allowed ...user.Role) gin.HandlerFunc {
	set := make(map[user.Role]struct{}, len(allowed))
	names := make([]string, 0, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
		names = append(names, string(r))
	}

	return func(c *gin.Context) {
		id, ok := actorctx.IdentityFrom(c.Request.Context())
		if !ok {
			panic("RequireRole used on a route without RequireSession")
		}

		if _, ok := set[id.Role]; !ok {
			slog.Default().WarnContext(c.Request.Context(), "role denied",
				"user_id", id.UserID,
				"role", string(id.Role),
				"route", c.FullPath(),
			)
			handlers.RespondForbidden(c, "Role ("+string(id.Role)+") is not allowed to access this resource.", gin.H{
				"role":     id.Role,
				"required": names,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
