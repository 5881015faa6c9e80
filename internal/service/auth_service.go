package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/aquarium-api/internal/auth"
	"github.com/spec-kit/aquarium-api/internal/domain"
	"github.com/spec-kit/aquarium-api/internal/events"
	"github.com/spec-kit/aquarium-api/internal/observability"
	"github.com/spec-kit/aquarium-api/internal/repository"
)

// Operation labels used in metrics and logs.
const (
	opRegister       = "register"
	opLogin          = "login"
	opVerifySession  = "verify_session"
	opChangePassword = "change_password"
)

// dummyPassword seeds the hash compared against when a principal does not
// exist, keeping login latency independent of account existence.
const dummyPassword = "aquarium-dummy-password-never-matches"

// Registration carries the fields needed to create a principal.
type Registration struct {
	Kind        domain.PrincipalKind
	PrincipalID string
	Password    string
	Role        string
	Profile     domain.Profile
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token   string
	Claims  domain.SessionClaims
	Profile domain.PublicProfile
}

// AuthService coordinates registration, login, session verification and
// password changes for staff and members. It holds no mutable state between
// calls; the credential store is the only shared resource.
type AuthService struct {
	creds      repository.CredentialRepository
	hasher     auth.PasswordHasher
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	dummyHash  string
}

// AuthDependencies encapsulates collaborators for the auth service.
// Dispatcher, Metrics and Logger are optional.
type AuthDependencies struct {
	Credentials repository.CredentialRepository
	Hasher      auth.PasswordHasher
	Tokens      *auth.TokenManager
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) (*AuthService, error) {
	if deps.Credentials == nil {
		return nil, errors.New("credential repository is required")
	}
	if deps.Hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("token manager is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dummyHash, err := deps.Hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		creds:      deps.Credentials,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger.Named("auth"),
		dummyHash:  dummyHash,
	}, nil
}

// Register creates a new principal. No session is issued; callers log in separately.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*domain.PublicProfile, error) {
	if !reg.Kind.Valid() {
		return nil, auth.ErrInvalidKind
	}
	principalID := domain.NormalizePrincipalID(reg.Kind, reg.PrincipalID)
	if principalID == "" {
		return nil, auth.ErrInvalidPrincipalID
	}
	if err := auth.ValidatePassword(reg.Password); err != nil {
		return nil, err
	}

	if _, err := s.creds.GetByPrincipal(ctx, reg.Kind, principalID); err == nil {
		s.metrics.RecordAuth(opRegister, reg.Kind, observability.ResultFailure)
		return nil, auth.ErrDuplicatePrincipal
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.storageError(opRegister, reg.Kind, err)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		s.metrics.RecordAuth(opRegister, reg.Kind, observability.ResultError)
		return nil, err
	}

	cred := &domain.Credential{
		Kind:         reg.Kind,
		PrincipalID:  principalID,
		PasswordHash: hash,
		Role:         reg.Role,
		Profile:      reg.Profile,
	}
	if err := s.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordAuth(opRegister, reg.Kind, observability.ResultFailure)
			return nil, auth.ErrDuplicatePrincipal
		}
		return nil, s.storageError(opRegister, reg.Kind, err)
	}

	s.metrics.RecordAuth(opRegister, reg.Kind, observability.ResultSuccess)
	s.logger.Info("principal registered",
		zap.String("kind", reg.Kind.String()),
		zap.String("principal_id", principalID),
		zap.String("role", reg.Role))
	s.publish(ctx, events.EventPrincipalRegistered, reg.Kind, principalID,
		events.PrincipalRegisteredPayload{Role: reg.Role})

	public := cred.Public()
	return &public, nil
}

// Login authenticates a principal and issues a 24h bearer token. An unknown
// principal and a wrong password return the same ErrInvalidCredentials value.
func (s *AuthService) Login(ctx context.Context, kind domain.PrincipalKind, principalID, password string) (*LoginResult, error) {
	if !kind.Valid() {
		return nil, auth.ErrInvalidKind
	}
	principalID = domain.NormalizePrincipalID(kind, principalID)

	cred, lookupErr := s.creds.GetByPrincipal(ctx, kind, principalID)
	exists := lookupErr == nil
	if lookupErr != nil && !errors.Is(lookupErr, repository.ErrNotFound) {
		return nil, s.storageError(opLogin, kind, lookupErr)
	}

	targetHash := s.dummyHash
	if exists {
		targetHash = cred.PasswordHash
	}

	// Always verify so unknown principals cost the same as known ones.
	ok, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && exists {
		s.metrics.RecordAuth(opLogin, kind, observability.ResultError)
		s.logger.Error("stored password hash unusable",
			zap.String("kind", kind.String()),
			zap.String("principal_id", principalID),
			zap.Error(verifyErr))
		return nil, verifyErr
	}
	if !exists || !ok {
		reason := "password_mismatch"
		if !exists {
			reason = "unknown_principal"
		}
		s.metrics.RecordAuth(opLogin, kind, observability.ResultFailure)
		s.logger.Warn("login rejected",
			zap.String("kind", kind.String()),
			zap.String("principal_id", principalID),
			zap.String("reason", reason))
		s.publish(ctx, events.EventLoginFailed, kind, principalID, events.LoginFailedPayload{Reason: reason})
		return nil, auth.ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(domain.SessionClaims{
		SubjectID: cred.PrincipalID,
		Kind:      cred.Kind,
		Role:      cred.Role,
	})
	if err != nil {
		s.metrics.RecordAuth(opLogin, kind, observability.ResultError)
		return nil, err
	}

	s.metrics.RecordAuth(opLogin, kind, observability.ResultSuccess)
	s.logger.Info("login succeeded",
		zap.String("kind", kind.String()),
		zap.String("principal_id", principalID))
	s.publish(ctx, events.EventLoginSucceeded, kind, principalID, nil)

	return &LoginResult{Token: token, Claims: claims, Profile: cred.Public()}, nil
}

// VerifySession validates the token and requires it to belong to requiredKind.
// Token errors propagate unchanged; a valid token of the other kind yields
// ErrWrongPrincipalKind.
func (s *AuthService) VerifySession(token string, requiredKind domain.PrincipalKind) (domain.Identity, error) {
	identity, err := s.verify(token)
	if err != nil {
		s.metrics.RecordAuth(opVerifySession, requiredKind, observability.ResultFailure)
		return domain.Identity{}, err
	}
	if identity.Kind != requiredKind {
		s.metrics.RecordAuth(opVerifySession, requiredKind, observability.ResultFailure)
		return domain.Identity{}, auth.ErrWrongPrincipalKind
	}
	s.metrics.RecordAuth(opVerifySession, requiredKind, observability.ResultSuccess)
	return identity, nil
}

// VerifyToken validates the token for either principal kind.
func (s *AuthService) VerifyToken(token string) (domain.Identity, error) {
	identity, err := s.verify(token)
	if err != nil {
		s.metrics.RecordAuth(opVerifySession, "", observability.ResultFailure)
		return domain.Identity{}, err
	}
	s.metrics.RecordAuth(opVerifySession, identity.Kind, observability.ResultSuccess)
	return identity, nil
}

func (s *AuthService) verify(token string) (domain.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{SessionClaims: claims}, nil
}

// ChangePassword re-proves the current password before storing a new hash.
// Outstanding tokens stay valid until their own expiry. Concurrent changes to
// the same principal are last-writer-wins.
func (s *AuthService) ChangePassword(ctx context.Context, identity domain.Identity, currentPassword, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	cred, err := s.creds.GetByPrincipal(ctx, identity.Kind, identity.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordAuth(opChangePassword, identity.Kind, observability.ResultFailure)
			return auth.ErrInvalidCredentials
		}
		return s.storageError(opChangePassword, identity.Kind, err)
	}

	ok, err := s.hasher.Verify(currentPassword, cred.PasswordHash)
	if err != nil {
		s.metrics.RecordAuth(opChangePassword, identity.Kind, observability.ResultError)
		return err
	}
	if !ok {
		s.metrics.RecordAuth(opChangePassword, identity.Kind, observability.ResultFailure)
		s.logger.Warn("password change rejected",
			zap.String("kind", identity.Kind.String()),
			zap.String("principal_id", identity.SubjectID))
		return auth.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.metrics.RecordAuth(opChangePassword, identity.Kind, observability.ResultError)
		return err
	}
	if err := s.creds.UpdatePasswordHash(ctx, identity.Kind, identity.SubjectID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.ErrInvalidCredentials
		}
		return s.storageError(opChangePassword, identity.Kind, err)
	}

	s.metrics.RecordAuth(opChangePassword, identity.Kind, observability.ResultSuccess)
	s.logger.Info("password changed",
		zap.String("kind", identity.Kind.String()),
		zap.String("principal_id", identity.SubjectID))
	s.publish(ctx, events.EventPasswordChanged, identity.Kind, identity.SubjectID, nil)
	return nil
}

// Profile returns the sanitized profile of a verified identity.
func (s *AuthService) Profile(ctx context.Context, identity domain.Identity) (*domain.PublicProfile, error) {
	cred, err := s.creds.GetByPrincipal(ctx, identity.Kind, identity.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, s.storageError("profile", identity.Kind, err)
	}
	public := cred.Public()
	return &public, nil
}

func (s *AuthService) storageError(op string, kind domain.PrincipalKind, err error) error {
	s.metrics.RecordAuth(op, kind, observability.ResultError)
	s.logger.Error("credential store failure",
		zap.String("operation", op),
		zap.String("kind", kind.String()),
		zap.Error(err))
	return fmt.Errorf("%w: %w", auth.ErrStorage, err)
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, kind domain.PrincipalKind, principalID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		Kind:        kind,
		PrincipalID: principalID,
		Timestamp:   time.Now().UTC(),
		Payload:     payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
