// Package actorctx carries the authenticated caller through a request's
// context. Only the session middleware writes it.
package actorctx

import (
	"context"

	"github.com/geocoder89/sitehub/internal/domain/user"
)

type ctxKey struct{}

// Identity is the read-only view of the caller. It never holds the password
// hash or reset state.
type Identity struct {
	UserID   string
	Email    string
	FullName string
	Role     user.Role
}

func FromUser(u user.User) Identity {
	return Identity{
		UserID:   u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKey{}).(Identity)

	return v, ok && v.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)
	return id.UserID, ok
}
