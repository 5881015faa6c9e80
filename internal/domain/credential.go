package domain

import "time"

// Profile holds display fields for a principal. Sensitive fields from the
// wider schema (SSN, salary, date of birth) are never carried here.
type Profile struct {
	ExternalID    string `json:"external_id,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	MiddleInitial string `json:"middle_initial,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	Address       string `json:"address,omitempty"`
}

// Credential is the stored record for a staff member or member.
type Credential struct {
	ID           string
	Kind         PrincipalKind
	PrincipalID  string
	PasswordHash string
	Role         string
	Profile      Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicProfile is the sanitized view of a Credential returned to clients.
type PublicProfile struct {
	PrincipalID string        `json:"principal_id"`
	Kind        PrincipalKind `json:"kind"`
	Role        string        `json:"role"`
	Profile
}

// Public strips the password hash and internal identifiers.
func (c Credential) Public() PublicProfile {
	return PublicProfile{
		PrincipalID: c.PrincipalID,
		Kind:        c.Kind,
		Role:        c.Role,
		Profile:     c.Profile,
	}
}
