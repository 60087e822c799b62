// Package token mints and verifies the opaque bearer tokens used by the API:
// bill claim tokens and password-reset tokens.
//
// The two token kinds are deliberately treated differently at rest. Claim
// tokens are stored raw because they are the database lookup key for
// self-service bill recovery; anyone holding the raw token can recover the
// bill, so it must only travel over secure channels. Reset tokens are stored
// only as a SHA-256 digest, so a leaked database does not yield usable reset
// tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// ClaimTokenBytes is the entropy of a bill claim token.
	ClaimTokenBytes = 20
	// ResetTokenBytes is the entropy of a password-reset token.
	ResetTokenBytes = 32
)

// Service mints claim and reset tokens. The reset-token TTL is injected at
// construction so business logic never reads configuration ad hoc.
type Service struct {
	resetTTL time.Duration
	now      func() time.Time
}

// NewService creates a token service with the given reset-token lifetime.
func NewService(resetTTL time.Duration) *Service {
	return &Service{resetTTL: resetTTL, now: time.Now}
}

// WithClock overrides the service clock. Useful for expiry tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// NewClaimToken generates a random hex-encoded claim token for a bill.
func (s *Service) NewClaimToken() (string, error) {
	return randomHex(ClaimTokenBytes)
}

// NewResetToken generates a password-reset token. It returns the plaintext
// token to hand to the user, the SHA-256 digest to persist, and the expiry
// timestamp.
func (s *Service) NewResetToken() (raw, digest string, expiry time.Time, err error) {
	raw, err = randomHex(ResetTokenBytes)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return raw, Hash(raw), s.now().Add(s.resetTTL), nil
}

// Hash returns the SHA-256 hex digest of a token string.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// Equal compares two tokens in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
