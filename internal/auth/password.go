package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts without truncation.
const MaxPasswordBytes = 72

// PasswordHasher hashes plaintext passwords and verifies attempts against them.
type PasswordHasher interface {
	// Hash returns a freshly salted hash; identical inputs yield different outputs.
	Hash(password string) (string, error)

	// Verify returns (true, nil) on match and (false, nil) on mismatch.
	// An unusable stored hash yields an error wrapping ErrVerification.
	Verify(password, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher with a fixed work factor.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher builds a hasher; costs outside bcrypt's range fall back to the default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash hashes a plaintext password with the configured cost.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify compares a plaintext attempt against a stored hash in constant time.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	if len(password) > MaxPasswordBytes {
		// Over-limit input was never hashable, so it cannot match. Still pay
		// for one comparison to keep timing flat.
		_ = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password[:MaxPasswordBytes]))
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrVerification, err)
	}
}

// ValidatePassword enforces the length window bcrypt can hash faithfully.
func ValidatePassword(password string) error {
	if len(password) == 0 || len(password) > MaxPasswordBytes {
		return ErrInvalidPassword
	}
	return nil
}
