package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const resetTokenBytes = 20

// ResetTokens mints and fingerprints password-reset tokens. Only the
// fingerprint is ever persisted; the plaintext goes out by mail.
type ResetTokens struct {
	pepper []byte
	ttl    time.Duration
}

func NewResetTokens(pepper string, ttl time.Duration) *ResetTokens {
	return &ResetTokens{pepper: []byte(pepper), ttl: ttl}
}

func (r *ResetTokens) TTL() time.Duration {
	return r.ttl
}

// Issue returns the plaintext token, its stored hash and the expiry fixed
// at now + TTL.
func (r *ResetTokens) Issue(now time.Time) (plain, hash string, expiresAt time.Time, err error) {
	b := make([]byte, resetTokenBytes)
	if _, err = rand.Read(b); err != nil {
		err = fmt.Errorf("generate reset token: %w", err)
		return
	}

	plain = hex.EncodeToString(b)
	hash = r.Hash(plain)
	expiresAt = now.UTC().Add(r.ttl)
	return
}

// Hash is deterministic: the same plaintext always maps to the same stored value.
func (r *ResetTokens) Hash(plain string) string {
	h := hmac.New(sha256.New, r.pepper)
	h.Write([]byte(plain))
	return hex.EncodeToString(h.Sum(nil))
}
