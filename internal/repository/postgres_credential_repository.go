package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/spec-kit/aquarium-api/internal/domain"
)

// Querier is the subset of *pgxpool.Pool the Postgres repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresCredentialRepository struct {
	db Querier
}

// NewPostgresCredentialRepository returns a Postgres-backed implementation.
func NewPostgresCredentialRepository(db Querier) CredentialRepository {
	return &postgresCredentialRepository{db: db}
}

func (r *postgresCredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	const query = `
        INSERT INTO credentials (
            id, kind, principal_id, password_hash, role,
            external_id, first_name, middle_initial, last_name, phone_number, address
        )
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING created_at, updated_at`

	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}

	var createdAt, updatedAt time.Time
	err := r.db.QueryRow(ctx, query,
		cred.ID,
		string(cred.Kind),
		cred.PrincipalID,
		cred.PasswordHash,
		cred.Role,
		cred.Profile.ExternalID,
		cred.Profile.FirstName,
		cred.Profile.MiddleInitial,
		cred.Profile.LastName,
		cred.Profile.PhoneNumber,
		cred.Profile.Address,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicate
		}
		return oops.In("postgres").
			With("operation", "insert credential").
			With("kind", cred.Kind).
			Wrap(err)
	}
	cred.CreatedAt = createdAt.UTC()
	cred.UpdatedAt = updatedAt.UTC()
	return nil
}

func (r *postgresCredentialRepository) GetByPrincipal(ctx context.Context, kind domain.PrincipalKind, principalID string) (*domain.Credential, error) {
	const query = `
        SELECT id, kind, principal_id, password_hash, role,
               external_id, first_name, middle_initial, last_name, phone_number, address,
               created_at, updated_at
        FROM credentials WHERE kind=$1 AND principal_id=$2`

	var (
		cred    domain.Credential
		rawKind string
	)
	if err := r.db.QueryRow(ctx, query, string(kind), principalID).Scan(
		&cred.ID,
		&rawKind,
		&cred.PrincipalID,
		&cred.PasswordHash,
		&cred.Role,
		&cred.Profile.ExternalID,
		&cred.Profile.FirstName,
		&cred.Profile.MiddleInitial,
		&cred.Profile.LastName,
		&cred.Profile.PhoneNumber,
		&cred.Profile.Address,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.In("postgres").
			With("operation", "get credential").
			With("kind", kind).
			Wrap(err)
	}
	cred.Kind = domain.PrincipalKind(rawKind)
	return &cred, nil
}

func (r *postgresCredentialRepository) UpdatePasswordHash(ctx context.Context, kind domain.PrincipalKind, principalID, hash string) error {
	const query = `
        UPDATE credentials SET password_hash=$1, updated_at=NOW()
        WHERE kind=$2 AND principal_id=$3`

	cmd, err := r.db.Exec(ctx, query, hash, string(kind), principalID)
	if err != nil {
		return oops.In("postgres").
			With("operation", "update password hash").
			With("kind", kind).
			Wrap(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
