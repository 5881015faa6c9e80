package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/aquarium-api/internal/domain"
)

type credentialKey struct {
	kind        domain.PrincipalKind
	principalID string
}

// MemoryCredentialRepository is an in-memory CredentialRepository.
// It is safe for concurrent use; records are copied on the way in and out.
type MemoryCredentialRepository struct {
	mu      sync.RWMutex
	records map[credentialKey]domain.Credential
	now     func() time.Time
}

// NewMemoryCredentialRepository returns an empty repository.
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{
		records: make(map[credentialKey]domain.Credential),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryCredentialRepository) Create(_ context.Context, cred *domain.Credential) error {
	key := credentialKey{kind: cred.Kind, principalID: cred.PrincipalID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[key]; exists {
		return ErrDuplicate
	}
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	now := r.now()
	cred.CreatedAt = now
	cred.UpdatedAt = now
	r.records[key] = *cred
	return nil
}

func (r *MemoryCredentialRepository) GetByPrincipal(_ context.Context, kind domain.PrincipalKind, principalID string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.records[credentialKey{kind: kind, principalID: principalID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &cred, nil
}

func (r *MemoryCredentialRepository) UpdatePasswordHash(_ context.Context, kind domain.PrincipalKind, principalID, hash string) error {
	key := credentialKey{kind: kind, principalID: principalID}

	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.records[key]
	if !ok {
		return ErrNotFound
	}
	cred.PasswordHash = hash
	cred.UpdatedAt = r.now()
	r.records[key] = cred
	return nil
}

// Len returns the number of stored credentials.
func (r *MemoryCredentialRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
