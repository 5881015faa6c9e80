package events

import (
	"time"

	"github.com/spec-kit/aquarium-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPrincipalRegistered EventType = "principal_registered"
	EventLoginSucceeded      EventType = "login_succeeded"
	EventLoginFailed         EventType = "login_failed"
	EventPasswordChanged     EventType = "password_changed"
)

// Event represents an authentication event emitted by the auth service.
// Payloads never carry plaintext passwords or hashes.
type Event struct {
	ID          string               `json:"id"`
	Type        EventType            `json:"type"`
	Kind        domain.PrincipalKind `json:"kind"`
	PrincipalID string               `json:"principal_id"`
	Timestamp   time.Time            `json:"timestamp"`
	Payload     interface{}          `json:"payload,omitempty"`
}

// LoginFailedPayload records why a login was rejected. Reason is internal only;
// callers always see the same invalid credentials error.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// PrincipalRegisteredPayload payload.
type PrincipalRegisteredPayload struct {
	Role string `json:"role"`
}
