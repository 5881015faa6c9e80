package dto

import (
	"time"

	"github.com/spec-kit/aquarium-api/internal/domain"
)

// PasswordChangeRequest payload for POST /auth/password/change.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse standard response for login endpoints.
type AuthResponse struct {
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expires_at"`
	Profile   domain.PublicProfile `json:"profile"`
}

// SessionResponse describes the caller's verified session.
type SessionResponse struct {
	Kind      domain.PrincipalKind  `json:"kind"`
	SubjectID string                `json:"subject_id"`
	Role      string                `json:"role"`
	IssuedAt  time.Time             `json:"issued_at"`
	ExpiresAt time.Time             `json:"expires_at"`
	Profile   *domain.PublicProfile `json:"profile,omitempty"`
}
