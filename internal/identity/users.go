package identity

import (
	"context"
	"strings"

	"github.com/geocoder89/sitehub/internal/actorctx"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/validation"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// UpdateProfile changes name, email and phone only. Nothing else on the
// request type can reach the store.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd user.ProfileUpdate) (user.User, error) {
	if err := validation.Struct(upd); err != nil {
		return user.User{}, err
	}
	if upd.Empty() {
		return user.User{}, ErrNothingToUpdate
	}

	if upd.Email != nil {
		email := user.NormalizeEmail(*upd.Email)
		upd.Email = &email
	}
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		upd.FullName = &name
	}

	return s.users.UpdateProfile(ctx, userID, upd)
}

type ListUsersResult struct {
	Users      []user.User
	NextCursor *user.Cursor
}

func (s *Service) ListUsers(ctx context.Context, filter user.ListFilter) (ListUsersResult, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	filter.Limit = limit + 1
	items, err := s.users.List(ctx, filter)
	if err != nil {
		return ListUsersResult{}, err
	}

	out := ListUsersResult{Users: items}
	if len(items) > limit {
		out.Users = items[:limit]
		last := out.Users[limit-1]
		out.NextCursor = &user.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return out, nil
}

// SetRole changes another account's role. Callers cannot change their own.
func (s *Service) SetRole(ctx context.Context, actor actorctx.Identity, targetID string, role user.Role) (user.User, error) {
	if !role.Valid() {
		return user.User{}, validation.Field("role", "oneof", "must be one of user, admin, superAdmin")
	}
	if actor.UserID == targetID {
		return user.User{}, ErrSelfRoleChange
	}

	u, err := s.users.SetRole(ctx, targetID, role)
	if err != nil {
		return user.User{}, err
	}

	s.log.InfoContext(ctx, "role changed", "actor_id", actor.UserID, "user_id", targetID, "role", string(role))
	return u, nil
}
