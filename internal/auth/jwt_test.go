package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func TestManager_TokenValidWithinTTL(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issuedAt}
	ttl := time.Hour

	m := NewManager("test-secret", ttl, WithClock(clock.Now))

	raw, expiresAt, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.Equal(issuedAt.Add(ttl)) {
		t.Fatalf("expiresAt = %v, want %v", expiresAt, issuedAt.Add(ttl))
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{name: "at issuance", at: issuedAt},
		{name: "mid window", at: issuedAt.Add(30 * time.Minute)},
		{name: "one second before expiry", at: issuedAt.Add(ttl - time.Second)},
		{name: "exactly at expiry", at: issuedAt.Add(ttl), wantErr: true},
		{name: "after expiry", at: issuedAt.Add(ttl + time.Minute), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.t = tt.at

			userID, err := m.Verify(raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("Verify err = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if userID != "user-1" {
				t.Fatalf("userID = %q, want user-1", userID)
			}
		})
	}
}

func TestManager_RejectsForgedAndMalformed(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	other := NewManager("other-secret", time.Hour)

	forged, _, err := other.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	good, _, _ := m.Issue("user-1")
	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:    "user-1",
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	for name, raw := range map[string]string{
		"wrong secret": forged,
		"tampered":     tampered,
		"garbage":      "not-a-jwt",
		"empty":        "",
		"alg none":     noneToken,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Verify(raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Verify err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestManager_RejectsWrongTokenType(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    "user-1",
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify err = %v, want ErrInvalidToken", err)
	}
}

func TestManager_EmptySecretRefusesToIssue(t *testing.T) {
	m := NewManager("", time.Hour)

	if _, _, err := m.Issue("u1"); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("Issue err = %v, want ErrNoSecret", err)
	}
}
