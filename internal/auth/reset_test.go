package auth

import (
	"testing"
	"time"
)

func TestResetTokens_Issue(t *testing.T) {
	rt := NewResetTokens("pepper", 15*time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	plain, hash, expiresAt, err := rt.Issue(now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if len(plain) != 2*resetTokenBytes {
		t.Fatalf("plain token length = %d, want %d", len(plain), 2*resetTokenBytes)
	}
	if hash == plain {
		t.Fatalf("stored hash must differ from plaintext")
	}
	if hash != rt.Hash(plain) {
		t.Fatalf("hash must be deterministic")
	}
	if !expiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("expiresAt = %v, want now+15m", expiresAt)
	}

	plain2, hash2, _, _ := rt.Issue(now)
	if plain2 == plain || hash2 == hash {
		t.Fatalf("consecutive tokens must differ")
	}
}

func TestResetTokens_HashDependsOnPepper(t *testing.T) {
	a := NewResetTokens("pepper-a", time.Minute)
	b := NewResetTokens("pepper-b", time.Minute)

	if a.Hash("token") == b.Hash("token") {
		t.Fatalf("different peppers should yield different hashes")
	}
}
