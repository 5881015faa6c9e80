package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/aquarium-api/internal/domain"
)

// SessionLifetime is the fixed validity window of every issued token.
const SessionLifetime = 24 * time.Hour

// MinSecretBytes is the shortest accepted HS256 signing secret.
const MinSecretBytes = 32

// Clock provides time to the token manager.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	issuer string
	clock  Clock
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source, for tests.
func WithClock(c Clock) TokenOption {
	return func(tm *TokenManager) {
		if c != nil {
			tm.clock = c
		}
	}
}

// WithIssuer sets the iss claim written and required on every token.
func WithIssuer(iss string) TokenOption {
	return func(tm *TokenManager) {
		tm.issuer = iss
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, opts ...TokenOption) (*TokenManager, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrSecretTooShort
	}
	tm := &TokenManager{secret: []byte(secret), clock: systemClock{}}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Claims describes JWT payload.
type Claims struct {
	Kind domain.PrincipalKind `json:"kind"`
	Role string               `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token for the subject, kind and role in claims. IssuedAt and
// ExpiresAt are always set by the manager; the completed claims are returned.
func (tm *TokenManager) Issue(claims domain.SessionClaims) (string, domain.SessionClaims, error) {
	if !claims.Kind.Valid() {
		return "", domain.SessionClaims{}, ErrInvalidKind
	}
	if claims.SubjectID == "" {
		return "", domain.SessionClaims{}, errors.New("token subject required")
	}

	issuedAt := tm.clock.Now().UTC().Truncate(time.Second)
	claims.IssuedAt = issuedAt
	claims.ExpiresAt = issuedAt.Add(SessionLifetime)

	payload := &Claims{
		Kind: claims.Kind,
		Role: claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tm.issuer,
			Subject:   claims.SubjectID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", domain.SessionClaims{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, claims, nil
}

// Verify checks signature and expiry and returns the embedded claims.
// A token is valid while now < exp.
func (tm *TokenManager) Verify(tokenStr string) (domain.SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}

	payload := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, payload, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.SessionClaims{}, ErrTokenExpired
		}
		return domain.SessionClaims{}, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
	if !parsed.Valid || payload.Subject == "" || !payload.Kind.Valid() || payload.IssuedAt == nil {
		return domain.SessionClaims{}, ErrTokenMalformed
	}

	return domain.SessionClaims{
		SubjectID: payload.Subject,
		Kind:      payload.Kind,
		Role:      payload.Role,
		IssuedAt:  payload.IssuedAt.Time.UTC(),
		ExpiresAt: payload.ExpiresAt.Time.UTC(),
	}, nil
}
