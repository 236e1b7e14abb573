package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/sitehub/internal/actorctx"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Keep these small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type SessionMiddleware struct {
	tokens     TokenVerifier
	users      UserLookup
	cookieName string
	timeout    time.Duration
}

func NewSessionMiddleware(tokens TokenVerifier, users UserLookup, cookieName string) *SessionMiddleware {
	if cookieName == "" {
		cookieName = "token"
	}
	return &SessionMiddleware{tokens: tokens, users: users, cookieName: cookieName, timeout: 3 * time.Second}
}

// credential prefers the session cookie and falls back to a bearer header.
func (m *SessionMiddleware) credential(c *gin.Context) string {
	if v, err := c.Cookie(m.cookieName); err == nil && v != "" {
		return v
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// RequireSession resolves the credential to a live user and attaches the
// identity to the request context. The user is re-read on every request so
// deleted accounts and role changes take effect immediately.
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := m.credential(c)
		if raw == "" {
			handlers.RespondUnAuthorized(c, "unauthorized", "Please log in to access this resource.")
			c.Abort()
			return
		}

		userID, err := m.tokens.Verify(raw)
		if err != nil {
			handlers.RespondUnAuthorized(c, "invalid_or_expired_token", "Session is invalid or has expired.")
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), m.timeout)
		u, err := m.users.GetByID(ctx, userID)
		cancel()
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				handlers.RespondUnAuthorized(c, "invalid_or_expired_token", "Session is invalid or has expired.")
			} else {
				handlers.RespondServiceError(c, err)
			}
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), actorctx.FromUser(u)))
		c.Set(CtxUserID, u.ID)

		c.Next()
	}
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	return actorctx.UserIDFrom(c.Request.Context())
}
