package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/sitehub/internal/db"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/identity"
)

var _ identity.UserStore = (*UsersRepo)(nil)

func testRepo(t *testing.T) *UsersRepo {
	t.Helper()

	url := os.Getenv("TEST_DB_URL")
	if url == "" {
		t.Skip("TEST_DB_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, url)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewUsersRepo(pool, nil)
}

func TestUsersRepo_ResetLifecycle(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	u := user.User{ID: "u1", FullName: "Ada", Email: "ada@x.io", Phone: "5550100", PasswordHash: "h0", Role: user.RoleUser, CreatedAt: now, UpdatedAt: now}
	if _, err := r.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	u.ID = "u2"
	if _, err := r.Create(ctx, u); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}

	if err := r.SetResetToken(ctx, "u1", "old", now.Add(time.Minute)); err != nil {
		t.Fatalf("SetResetToken: %v", err)
	}
	if err := r.SetResetToken(ctx, "u1", "new", now.Add(time.Minute)); err != nil {
		t.Fatalf("SetResetToken: %v", err)
	}

	// rollback for the superseded token must not clear the newer one
	if err := r.ClearResetToken(ctx, "u1", "old"); err != nil {
		t.Fatalf("ClearResetToken: %v", err)
	}
	if _, err := r.RedeemResetToken(ctx, "old", now, "h1"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("old token err = %v, want ErrNotFound", err)
	}

	got, err := r.RedeemResetToken(ctx, "new", now, "h1")
	if err != nil {
		t.Fatalf("RedeemResetToken: %v", err)
	}
	if got.PasswordHash != "h1" || got.HasPendingReset() {
		t.Fatalf("after redeem: %+v", got)
	}

	if _, err := r.RedeemResetToken(ctx, "new", now, "h2"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("replay err = %v, want ErrNotFound", err)
	}
}

func TestUsersRepo_ListPaging(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i, id := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Second)
		if _, err := r.Create(ctx, user.User{ID: id, FullName: id, Email: id + "@x.io", PasswordHash: "h", Role: user.RoleAdmin, CreatedAt: at, UpdatedAt: at}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page, err := r.List(ctx, user.ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 || page[0].ID != "c" || page[1].ID != "b" {
		t.Fatalf("page 1 = %+v", page)
	}

	last := page[1]
	page, err = r.List(ctx, user.ListFilter{Limit: 2, Cursor: &user.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 1 || page[0].ID != "a" {
		t.Fatalf("page 2 = %+v", page)
	}
}
