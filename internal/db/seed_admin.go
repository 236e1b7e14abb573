package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/sitehub/internal/config"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/google/uuid"
)

type SeedStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	SetRole(ctx context.Context, id string, role user.Role) (user.User, error)
}

type Hasher interface {
	Hash(plain string) (string, error)
}

// EnsureSuperAdmin creates the configured super-admin on first boot and
// restores its role if it was changed. It never touches the password of an
// existing account.
func EnsureSuperAdmin(ctx context.Context, store SeedStore, hasher Hasher, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := user.NormalizeEmail(cfg.AdminEmail)

	existing, err := store.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role == user.RoleSuperAdmin {
			return nil
		}
		_, err = store.SetRole(ctx, existing.ID, user.RoleSuperAdmin)
		if err == nil {
			slog.Default().InfoContext(ctx, "super admin role restored", "user_id", existing.ID)
		}
		return err
	}
	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	u, err := store.Create(ctx, user.User{
		ID:           uuid.NewString(),
		FullName:     cfg.AdminName,
		Email:        email,
		Phone:        cfg.AdminPhone,
		PasswordHash: hash,
		Role:         user.RoleSuperAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	// a concurrent boot may have won the insert
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Default().InfoContext(ctx, "super admin seeded", "user_id", u.ID)
	return nil
}
