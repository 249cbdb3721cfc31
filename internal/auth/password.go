package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// bcrypt only looks at the first 72 bytes of its input.
const maxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt. Both operations
// are CPU-bound by design, so they pass through a weighted semaphore that
// caps how many run at once; waiting callers give up when their context ends.
type PasswordHasher struct {
	cost  int
	gate  *semaphore.Weighted
	dummy []byte
}

// NewPasswordHasher returns a hasher using the given bcrypt cost and at most
// concurrency simultaneous hash computations.
func NewPasswordHasher(cost, concurrency int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost: %d", cost)
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	// Digest compared against when the account does not exist, so the
	// unknown-account path costs the same as a wrong password.
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(seed)), cost)
	if err != nil {
		return nil, err
	}

	return &PasswordHasher{
		cost:  cost,
		gate:  semaphore.NewWeighted(int64(concurrency)),
		dummy: dummy,
	}, nil
}

// HashPassword returns a salted bcrypt digest of plaintext.
func (h *PasswordHasher) HashPassword(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	if err := h.gate.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.gate.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword reports whether plaintext matches digest. A malformed
// digest is a mismatch. The error is non-nil only when ctx ended before
// the comparison could run.
func (h *PasswordHasher) VerifyPassword(
	ctx context.Context,
	plaintext, digest string,
) (bool, error) {
	if err := h.gate.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.gate.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil, nil
}

// burn performs one comparison against the dummy digest and discards the
// result.
func (h *PasswordHasher) burn(ctx context.Context, plaintext string) {
	_, _ = h.VerifyPassword(ctx, plaintext, string(h.dummy))
}
