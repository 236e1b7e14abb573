package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/sitehub/internal/domain/content"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/identity"
	"github.com/geocoder89/sitehub/internal/site"
)

var (
	_ identity.UserStore = (*UsersRepo)(nil)
	_ site.Store         = (*ContentRepo)(nil)
)

// testStore needs MONGO_TEST_URI; the suite is skipped without it.
func testStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	s, err := NewStore(ctx, uri, "sitehub_test", nil)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	if err := s.db.Drop(ctx); err != nil {
		t.Fatalf("drop test database: %v", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestUsers_UniqueEmailAndRedeem(t *testing.T) {
	s := testStore(t)
	users := s.Users()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := user.User{ID: "u1", FullName: "Ada Lovelace", Email: "ada@x.io", Role: user.RoleUser, PasswordHash: "h0", CreatedAt: now, UpdatedAt: now}
	if _, err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	u.ID = "u2"
	if _, err := users.Create(ctx, u); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}

	if err := users.SetResetToken(ctx, "u1", "th", now.Add(15*time.Minute)); err != nil {
		t.Fatalf("SetResetToken: %v", err)
	}

	got, err := users.RedeemResetToken(ctx, "th", now, "h1")
	if err != nil {
		t.Fatalf("RedeemResetToken: %v", err)
	}
	if got.PasswordHash != "h1" || got.HasPendingReset() {
		t.Fatalf("user after redeem = %+v", got)
	}

	if _, err := users.RedeemResetToken(ctx, "th", now, "h2"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("second redeem err = %v, want ErrNotFound", err)
	}
}

func TestUsers_ClearExpired(t *testing.T) {
	s := testStore(t)
	users := s.Users()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i, id := range []string{"a", "b"} {
		if _, err := users.Create(ctx, user.User{ID: id, Email: id + "@x.io", Role: user.RoleUser, CreatedAt: now, UpdatedAt: now}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		exp := now.Add(time.Duration(i*30-10) * time.Minute)
		if err := users.SetResetToken(ctx, id, "t-"+id, exp); err != nil {
			t.Fatalf("SetResetToken: %v", err)
		}
	}

	n, err := users.ClearExpiredResetTokens(ctx, now)
	if err != nil {
		t.Fatalf("ClearExpiredResetTokens: %v", err)
	}
	if n != 1 {
		t.Fatalf("cleared %d, want 1", n)
	}
}

func TestContent_HeaderUniquePerOwner(t *testing.T) {
	s := testStore(t)
	repo := s.Content()
	ctx := context.Background()

	h := content.Header{ID: "h1", OwnerID: "o1", LogoURL: "l", NavItems: []content.NavItem{{Label: "Home", Link: "/"}}}
	if _, err := repo.CreateHeader(ctx, h); err != nil {
		t.Fatalf("CreateHeader: %v", err)
	}
	h.ID = "h2"
	if _, err := repo.CreateHeader(ctx, h); !errors.Is(err, content.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestContent_AppointmentsVisibility(t *testing.T) {
	s := testStore(t)
	repo := s.Content()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for _, a := range []content.Appointment{
		{ID: "p1", Name: "shared", Status: content.StatusPending, CreatedAt: now},
		{ID: "p2", OwnerID: "o1", Name: "mine", Status: content.StatusPending, CreatedAt: now.Add(time.Second)},
		{ID: "p3", OwnerID: "o2", Name: "theirs", Status: content.StatusPending, CreatedAt: now.Add(2 * time.Second)},
	} {
		if _, err := repo.CreateAppointment(ctx, a); err != nil {
			t.Fatalf("CreateAppointment: %v", err)
		}
	}

	got, err := repo.ListAppointments(ctx, content.AppointmentFilter{OwnerID: "o1", Limit: 10})
	if err != nil {
		t.Fatalf("ListAppointments: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p2" || got[1].ID != "p1" {
		t.Fatalf("got %+v", got)
	}
}
