package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/spec-kit/aquarium-api/internal/domain"
)

// redisCredential is the JSON document stored per principal.
type redisCredential struct {
	ID           string         `json:"id"`
	Kind         string         `json:"kind"`
	PrincipalID  string         `json:"principal_id"`
	PasswordHash string         `json:"password_hash"`
	Role         string         `json:"role"`
	Profile      domain.Profile `json:"profile"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type redisCredentialRepository struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

// NewRedisCredentialRepository returns a Redis-backed implementation. Each
// credential is one key; SETNX provides the uniqueness constraint.
func NewRedisCredentialRepository(client redis.Cmdable, keyPrefix string) CredentialRepository {
	return &redisCredentialRepository{
		client: client,
		prefix: keyPrefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *redisCredentialRepository) key(kind domain.PrincipalKind, principalID string) string {
	return r.prefix + "credential:" + string(kind) + ":" + principalID
}

func (r *redisCredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	now := r.now()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	payload, err := json.Marshal(toRedisCredential(cred))
	if err != nil {
		return oops.In("redis").With("operation", "encode credential").Wrap(err)
	}

	created, err := r.client.SetNX(ctx, r.key(cred.Kind, cred.PrincipalID), payload, 0).Result()
	if err != nil {
		return oops.In("redis").
			With("operation", "insert credential").
			With("kind", cred.Kind).
			Wrap(err)
	}
	if !created {
		return ErrDuplicate
	}
	return nil
}

func (r *redisCredentialRepository) GetByPrincipal(ctx context.Context, kind domain.PrincipalKind, principalID string) (*domain.Credential, error) {
	stored, err := r.load(ctx, kind, principalID)
	if err != nil {
		return nil, err
	}
	cred := stored.toDomain()
	return &cred, nil
}

// UpdatePasswordHash rewrites the document with SET XX so a concurrently
// missing record is never recreated. Concurrent updates are last-writer-wins.
func (r *redisCredentialRepository) UpdatePasswordHash(ctx context.Context, kind domain.PrincipalKind, principalID, hash string) error {
	stored, err := r.load(ctx, kind, principalID)
	if err != nil {
		return err
	}
	stored.PasswordHash = hash
	stored.UpdatedAt = r.now()

	payload, err := json.Marshal(stored)
	if err != nil {
		return oops.In("redis").With("operation", "encode credential").Wrap(err)
	}
	updated, err := r.client.SetXX(ctx, r.key(kind, principalID), payload, 0).Result()
	if err != nil {
		return oops.In("redis").
			With("operation", "update password hash").
			With("kind", kind).
			Wrap(err)
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

func (r *redisCredentialRepository) load(ctx context.Context, kind domain.PrincipalKind, principalID string) (*redisCredential, error) {
	raw, err := r.client.Get(ctx, r.key(kind, principalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, oops.In("redis").
			With("operation", "get credential").
			With("kind", kind).
			Wrap(err)
	}
	var stored redisCredential
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, oops.In("redis").With("operation", "decode credential").Wrap(err)
	}
	return &stored, nil
}

func toRedisCredential(cred *domain.Credential) redisCredential {
	return redisCredential{
		ID:           cred.ID,
		Kind:         string(cred.Kind),
		PrincipalID:  cred.PrincipalID,
		PasswordHash: cred.PasswordHash,
		Role:         cred.Role,
		Profile:      cred.Profile,
		CreatedAt:    cred.CreatedAt,
		UpdatedAt:    cred.UpdatedAt,
	}
}

func (c redisCredential) toDomain() domain.Credential {
	return domain.Credential{
		ID:           c.ID,
		Kind:         domain.PrincipalKind(c.Kind),
		PrincipalID:  c.PrincipalID,
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		Profile:      c.Profile,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
