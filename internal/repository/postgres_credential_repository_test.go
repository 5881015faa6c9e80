package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/aquarium-api/internal/domain"
)

var credentialColumns = []string{
	"id", "kind", "principal_id", "password_hash", "role",
	"external_id", "first_name", "middle_initial", "last_name", "phone_number", "address",
	"created_at", "updated_at",
}

// createArgs matches the eleven insert parameters; the generated id is not known up front.
func createArgs() []any {
	return []any{pgxmock.AnyArg(), "staff", "alice", "hash", "Manager", "S-100", "Alice", "", "Nguyen", "", ""}
}

func TestPostgresCredentialRepository_Create(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO credentials`).
					WithArgs(createArgs()...).
					WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
			},
		},
		{
			name: "unique violation maps to ErrDuplicate",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO credentials`).
					WithArgs(createArgs()...).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "credentials_kind_principal_key"})
			},
			wantErr: ErrDuplicate,
		},
		{
			name: "database error is wrapped",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO credentials`).
					WithArgs(createArgs()...).
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewPostgresCredentialRepository(mock)
			cred := &domain.Credential{
				Kind:         domain.PrincipalKindStaff,
				PrincipalID:  "alice",
				PasswordHash: "hash",
				Role:         "Manager",
				Profile:      domain.Profile{ExternalID: "S-100", FirstName: "Alice", LastName: "Nguyen"},
			}
			err = repo.Create(context.Background(), cred)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.NotErrorIs(t, err, ErrDuplicate)
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, cred.ID)
				assert.Equal(t, now, cred.CreatedAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPostgresCredentialRepository_GetByPrincipal(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, kind, principal_id`).
			WithArgs("member", "bob@example.com").
			WillReturnRows(pgxmock.NewRows(credentialColumns).AddRow(
				"c-1", "member", "bob@example.com", "hash", "Gold",
				"M-123456", "Bob", "J", "Marsh", "555-0100", "1 Reef Way",
				now, now,
			))

		repo := NewPostgresCredentialRepository(mock)
		got, err := repo.GetByPrincipal(context.Background(), domain.PrincipalKindMember, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, "c-1", got.ID)
		assert.Equal(t, domain.PrincipalKindMember, got.Kind)
		assert.Equal(t, "Gold", got.Role)
		assert.Equal(t, "M-123456", got.Profile.ExternalID)
		assert.Equal(t, "1 Reef Way", got.Profile.Address)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, kind, principal_id`).
			WithArgs("staff", "ghost").
			WillReturnError(pgx.ErrNoRows)

		repo := NewPostgresCredentialRepository(mock)
		_, err = repo.GetByPrincipal(context.Background(), domain.PrincipalKindStaff, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error is wrapped", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, kind, principal_id`).
			WithArgs("staff", "alice").
			WillReturnError(errors.New("timeout"))

		repo := NewPostgresCredentialRepository(mock)
		_, err = repo.GetByPrincipal(context.Background(), domain.PrincipalKindStaff, "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresCredentialRepository_UpdatePasswordHash(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		execErr  error
		wantErr  error
	}{
		{name: "updated", affected: 1},
		{name: "missing record", affected: 0, wantErr: ErrNotFound},
		{name: "database error", execErr: errors.New("broken pipe")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			exp := mock.ExpectExec(`UPDATE credentials SET password_hash`).
				WithArgs("new-hash", "staff", "alice")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))
			}

			repo := NewPostgresCredentialRepository(mock)
			err = repo.UpdatePasswordHash(context.Background(), domain.PrincipalKindStaff, "alice", "new-hash")

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.execErr != nil:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "broken pipe")
			default:
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
