package domain

import "time"

// SessionClaims are the identity claims carried inside a bearer token.
type SessionClaims struct {
	SubjectID string
	Kind      PrincipalKind
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity is the verified session attached to an inbound request.
type Identity struct {
	SessionClaims
}

// IsStaff reports whether the identity belongs to a staff principal.
func (i Identity) IsStaff() bool {
	return i.Kind == PrincipalKindStaff
}
