package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/aquarium-api/internal/auth"
	"github.com/spec-kit/aquarium-api/internal/domain"
	"github.com/spec-kit/aquarium-api/internal/events"
	"github.com/spec-kit/aquarium-api/internal/observability"
	"github.com/spec-kit/aquarium-api/internal/repository"
	"github.com/spec-kit/aquarium-api/internal/service"
)

const testSecret = "service-test-secret-32-bytes-long"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   *service.AuthService
	repo  *repository.MemoryCredentialRepository
	clock *fakeClock
}

type fixtureOption func(*service.AuthDependencies)

func newFixture(t *testing.T, opts ...fixtureOption) fixture {
	t.Helper()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenManager(testSecret, auth.WithClock(clk), auth.WithIssuer("aquarium-api"))
	require.NoError(t, err)

	repo := repository.NewMemoryCredentialRepository()
	deps := service.AuthDependencies{
		Credentials: repo,
		Hasher:      auth.NewBcryptHasher(bcrypt.MinCost),
		Tokens:      tokens,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	svc, err := service.NewAuthService(deps)
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, clock: clk}
}

func registerMember(t *testing.T, f fixture, email, password string) {
	t.Helper()
	_, err := f.svc.Register(context.Background(), service.Registration{
		Kind:        domain.PrincipalKindMember,
		PrincipalID: email,
		Password:    password,
		Role:        "Silver",
	})
	require.NoError(t, err)
}

func TestNewAuthService_RequiresCollaborators(t *testing.T) {
	tokens, err := auth.NewTokenManager(testSecret)
	require.NoError(t, err)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	repo := repository.NewMemoryCredentialRepository()

	tests := []struct {
		name string
		deps service.AuthDependencies
		msg  string
	}{
		{"missing repository", service.AuthDependencies{Hasher: hasher, Tokens: tokens}, "credential repository is required"},
		{"missing hasher", service.AuthDependencies{Credentials: repo, Tokens: tokens}, "password hasher is required"},
		{"missing tokens", service.AuthDependencies{Credentials: repo, Hasher: hasher}, "token manager is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := service.NewAuthService(tt.deps)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Nil(t, svc)
		})
	}
}

func TestAuthService_MemberLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, err := f.svc.Register(ctx, service.Registration{
		Kind:        domain.PrincipalKindMember,
		PrincipalID: "alice@x.io",
		Password:    "pw1",
		Role:        "Gold",
		Profile:     domain.Profile{FirstName: "Alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", profile.PrincipalID)
	assert.Equal(t, domain.PrincipalKindMember, profile.Kind)
	assert.Equal(t, "Gold", profile.Role)
	assert.Equal(t, "Alice", profile.FirstName)

	issuedAt := f.clock.Now()
	result, err := f.svc.Login(ctx, domain.PrincipalKindMember, "alice@x.io", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, "alice@x.io", result.Claims.SubjectID)
	assert.Equal(t, domain.PrincipalKindMember, result.Claims.Kind)
	assert.True(t, result.Claims.ExpiresAt.Equal(issuedAt.Add(24*time.Hour)))
	assert.Equal(t, "alice@x.io", result.Profile.PrincipalID)

	f.clock.Advance(time.Hour)
	identity, err := f.svc.VerifySession(result.Token, domain.PrincipalKindMember)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", identity.SubjectID)
	assert.Equal(t, "Gold", identity.Role)

	_, err = f.svc.VerifySession(result.Token, domain.PrincipalKindStaff)
	assert.ErrorIs(t, err, auth.ErrWrongPrincipalKind)

	f.clock.Advance(23 * time.Hour)
	_, err = f.svc.VerifySession(result.Token, domain.PrincipalKindMember)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestAuthService_StaffPasswordRotationScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, service.Registration{
		Kind:        domain.PrincipalKindStaff,
		PrincipalID: "alice",
		Password:    "Secret1!",
		Role:        "Aquarist",
		Profile:     domain.Profile{FirstName: "Alice", LastName: "Reed"},
	})
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, domain.PrincipalKindStaff, "alice", "Secret1!")
	require.NoError(t, err)

	identity, err := f.svc.VerifySession(result.Token, domain.PrincipalKindStaff)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.SubjectID)
	assert.Equal(t, domain.PrincipalKindStaff, identity.Kind)
	assert.Equal(t, "Aquarist", identity.Role)

	require.NoError(t, f.svc.ChangePassword(ctx, identity, "Secret1!", "Secret2!"))

	_, err = f.svc.Login(ctx, domain.PrincipalKindStaff, "alice", "Secret1!")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, domain.PrincipalKindStaff, "alice", "Secret2!")
	assert.NoError(t, err)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	registerMember(t, f, "alice@x.io", "pw1")

	_, err := f.svc.Register(context.Background(), service.Registration{
		Kind:        domain.PrincipalKindMember,
		PrincipalID: "  ALICE@x.io ",
		Password:    "other",
	})
	assert.ErrorIs(t, err, auth.ErrDuplicatePrincipal)

	// The first password still works.
	_, err = f.svc.Login(context.Background(), domain.PrincipalKindMember, "alice@x.io", "pw1")
	assert.NoError(t, err)
}

func TestAuthService_RegisterSameIdentifierAcrossKinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, service.Registration{Kind: domain.PrincipalKindStaff, PrincipalID: "sam", Password: "staffpw", Role: "Manager"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, service.Registration{Kind: domain.PrincipalKindMember, PrincipalID: "sam", Password: "memberpw"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, domain.PrincipalKindStaff, "sam", "memberpw")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, domain.PrincipalKindMember, "sam", "memberpw")
	assert.NoError(t, err)
}

func TestAuthService_ConcurrentRegisterSingleWinner(t *testing.T) {
	f := newFixture(t)
	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Register(context.Background(), service.Registration{
				Kind:        domain.PrincipalKindMember,
				PrincipalID: "race@x.io",
				Password:    "pw",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, auth.ErrDuplicatePrincipal):
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, dupes)
	assert.Equal(t, 1, f.repo.Len())
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		reg  service.Registration
		want error
	}{
		{"unknown kind", service.Registration{Kind: "visitor", PrincipalID: "a", Password: "pw"}, auth.ErrInvalidKind},
		{"blank id", service.Registration{Kind: domain.PrincipalKindStaff, PrincipalID: "   ", Password: "pw"}, auth.ErrInvalidPrincipalID},
		{"empty password", service.Registration{Kind: domain.PrincipalKindStaff, PrincipalID: "a", Password: ""}, auth.ErrInvalidPassword},
		{"long password", service.Registration{Kind: domain.PrincipalKindStaff, PrincipalID: "a", Password: strings.Repeat("x", 73)}, auth.ErrInvalidPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.reg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, f.repo.Len())
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	registerMember(t, f, "alice@x.io", "pw1")
	ctx := context.Background()

	_, unknownErr := f.svc.Login(ctx, domain.PrincipalKindMember, "nobody@x.io", "pw1")
	_, wrongErr := f.svc.Login(ctx, domain.PrincipalKindMember, "alice@x.io", "nope")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.True(t, unknownErr == wrongErr)
	assert.Equal(t, auth.ErrInvalidCredentials, unknownErr)
}

func TestAuthService_LoginUnusableStoredHash(t *testing.T) {
	f := newFixture(t)
	registerMember(t, f, "alice@x.io", "pw1")
	require.NoError(t, f.repo.UpdatePasswordHash(context.Background(), domain.PrincipalKindMember, "alice@x.io", "not-a-bcrypt-hash"))

	_, err := f.svc.Login(context.Background(), domain.PrincipalKindMember, "alice@x.io", "pw1")
	assert.ErrorIs(t, err, auth.ErrVerification)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_VerifyTokenMalformed(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, auth.ErrTokenMalformed)

	_, err = f.svc.VerifySession("", domain.PrincipalKindStaff)
	assert.ErrorIs(t, err, auth.ErrTokenMalformed)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerMember(t, f, "alice@x.io", "pw1")

	result, err := f.svc.Login(ctx, domain.PrincipalKindMember, "alice@x.io", "pw1")
	require.NoError(t, err)
	identity, err := f.svc.VerifySession(result.Token, domain.PrincipalKindMember)
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, identity, "wrong", "pw2")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	err = f.svc.ChangePassword(ctx, identity, "pw1", "")
	assert.ErrorIs(t, err, auth.ErrInvalidPassword)

	require.NoError(t, f.svc.ChangePassword(ctx, identity, "pw1", "pw2"))

	_, err = f.svc.Login(ctx, domain.PrincipalKindMember, "alice@x.io", "pw1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, domain.PrincipalKindMember, "alice@x.io", "pw2")
	assert.NoError(t, err)

	// Sessions are stateless: the earlier token stays valid until expiry.
	_, err = f.svc.VerifySession(result.Token, domain.PrincipalKindMember)
	assert.NoError(t, err)
}

func TestAuthService_ChangePasswordUnknownPrincipal(t *testing.T) {
	f := newFixture(t)
	identity := domain.Identity{SessionClaims: domain.SessionClaims{SubjectID: "ghost@x.io", Kind: domain.PrincipalKindMember}}

	err := f.svc.ChangePassword(context.Background(), identity, "pw1", "pw2")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Profile(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), service.Registration{
		Kind:        domain.PrincipalKindStaff,
		PrincipalID: "mgr",
		Password:    "pw",
		Role:        "Manager",
		Profile:     domain.Profile{ExternalID: "S-1", LastName: "Reef"},
	})
	require.NoError(t, err)

	identity := domain.Identity{SessionClaims: domain.SessionClaims{SubjectID: "mgr", Kind: domain.PrincipalKindStaff}}
	profile, err := f.svc.Profile(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, "Manager", profile.Role)
	assert.Equal(t, "S-1", profile.ExternalID)
	assert.Equal(t, "Reef", profile.LastName)
}

type failingRepository struct {
	err error
}

func (r failingRepository) Create(context.Context, *domain.Credential) error { return r.err }

func (r failingRepository) GetByPrincipal(context.Context, domain.PrincipalKind, string) (*domain.Credential, error) {
	return nil, r.err
}

func (r failingRepository) UpdatePasswordHash(context.Context, domain.PrincipalKind, string, string) error {
	return r.err
}

func TestAuthService_StorageErrorsAreWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	f := newFixture(t, func(d *service.AuthDependencies) {
		d.Credentials = failingRepository{err: cause}
	})
	ctx := context.Background()

	_, err := f.svc.Register(ctx, service.Registration{Kind: domain.PrincipalKindMember, PrincipalID: "a@x.io", Password: "pw"})
	assert.ErrorIs(t, err, auth.ErrStorage)
	assert.ErrorIs(t, err, cause)

	_, err = f.svc.Login(ctx, domain.PrincipalKindMember, "a@x.io", "pw")
	assert.ErrorIs(t, err, auth.ErrStorage)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)

	identity := domain.Identity{SessionClaims: domain.SessionClaims{SubjectID: "a@x.io", Kind: domain.PrincipalKindMember}}
	err = f.svc.ChangePassword(ctx, identity, "pw", "pw2")
	assert.ErrorIs(t, err, auth.ErrStorage)
	assert.ErrorIs(t, err, cause)
}

func TestAuthService_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, func(d *service.AuthDependencies) {
		d.Metrics = observability.NewMetrics(reg)
	})
	registerMember(t, f, "alice@x.io", "pw1")
	_, err := f.svc.Login(context.Background(), domain.PrincipalKindMember, "alice@x.io", "bad")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	expected := `
# HELP auth_operations_total Authentication operations by operation, principal kind and result
# TYPE auth_operations_total counter
auth_operations_total{kind="member",operation="login",result="failure"} 1
auth_operations_total{kind="member",operation="register",result="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "auth_operations_total"))
}

func TestAuthService_RecordsSessionVerificationOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, func(d *service.AuthDependencies) {
		d.Metrics = observability.NewMetrics(reg)
	})
	registerMember(t, f, "alice@x.io", "pw1")
	result, err := f.svc.Login(context.Background(), domain.PrincipalKindMember, "alice@x.io", "pw1")
	require.NoError(t, err)

	_, err = f.svc.VerifySession(result.Token, domain.PrincipalKindMember)
	require.NoError(t, err)
	_, err = f.svc.VerifySession(result.Token, domain.PrincipalKindStaff)
	require.ErrorIs(t, err, auth.ErrWrongPrincipalKind)
	_, err = f.svc.VerifyToken(result.Token)
	require.NoError(t, err)

	expected := `
# HELP auth_operations_total Authentication operations by operation, principal kind and result
# TYPE auth_operations_total counter
auth_operations_total{kind="member",operation="login",result="success"} 1
auth_operations_total{kind="member",operation="register",result="success"} 1
auth_operations_total{kind="member",operation="verify_session",result="success"} 2
auth_operations_total{kind="staff",operation="verify_session",result="failure"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "auth_operations_total"))
}

func TestAuthService_PublishesAuditEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()

	f := newFixture(t, func(d *service.AuthDependencies) {
		d.Dispatcher = dispatcher
	})
	ctx := context.Background()
	registerMember(t, f, "alice@x.io", "pw1")
	_, err := f.svc.Login(ctx, domain.PrincipalKindMember, "alice@x.io", "bad")
	require.Error(t, err)
	_, err = f.svc.Login(ctx, domain.PrincipalKindMember, "alice@x.io", "pw1")
	require.NoError(t, err)

	entries := logs.FilterMessage("auth event").All()
	require.Len(t, entries, 3)

	var types []string
	for _, entry := range entries {
		fields := entry.ContextMap()
		assert.Equal(t, "alice@x.io", fields["principal_id"])
		assert.Equal(t, "member", fields["kind"])
		types = append(types, fields["event_type"].(string))
		for _, v := range fields {
			if s, ok := v.(string); ok {
				assert.NotContains(t, s, "pw1")
			}
		}
	}
	assert.Equal(t, []string{
		string(events.EventPrincipalRegistered),
		string(events.EventLoginFailed),
		string(events.EventLoginSucceeded),
	}, types)
}

func TestAuthService_FailingAuditHandlerDoesNotFailOperation(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventPrincipalRegistered, func(context.Context, events.Event) error {
		return errors.New("audit sink down")
	})
	f := newFixture(t, func(d *service.AuthDependencies) {
		d.Dispatcher = dispatcher
	})

	registerMember(t, f, "alice@x.io", "pw1")
	assert.Equal(t, 1, f.repo.Len())
}
