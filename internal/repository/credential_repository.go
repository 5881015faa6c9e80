package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/aquarium-api/internal/domain"
)

var (
	// ErrNotFound indicates no credential exists for the (kind, principal id) pair.
	ErrNotFound = errors.New("credential not found")

	// ErrDuplicate indicates a credential already exists for the (kind, principal id) pair.
	ErrDuplicate = errors.New("credential already exists")
)

// CredentialRepository defines persistence access for staff and member credentials.
//
// Principal ids are unique per kind; the same string may exist once as a staff
// username and once as a member email. Implementations must be safe for
// concurrent use and must resolve racing Create calls so at most one succeeds.
type CredentialRepository interface {
	// Create inserts cred, assigning ID, CreatedAt and UpdatedAt. Returns ErrDuplicate on collision.
	Create(ctx context.Context, cred *domain.Credential) error

	// GetByPrincipal returns ErrNotFound when no record exists.
	GetByPrincipal(ctx context.Context, kind domain.PrincipalKind, principalID string) (*domain.Credential, error)

	// UpdatePasswordHash replaces the stored hash. Returns ErrNotFound when no record exists.
	UpdatePasswordHash(ctx context.Context, kind domain.PrincipalKind, principalID, hash string) error
}
