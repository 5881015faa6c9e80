package dto

import "github.com/spec-kit/aquarium-api/internal/domain"

// DefaultMembershipType applies when a member registers without one.
const DefaultMembershipType = "Silver"

// MemberRegisterRequest payload for POST /auth/member/register.
type MemberRegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	MembershipType string `json:"membership_type"`
	MembershipID   string `json:"membership_id"`
	FirstName      string `json:"first_name"`
	MiddleInitial  string `json:"middle_initial"`
	LastName       string `json:"last_name"`
	PhoneNumber    string `json:"phone_number"`
	Address        string `json:"address"`
}

// Profile returns the display fields carried by the request.
func (r MemberRegisterRequest) Profile() domain.Profile {
	return domain.Profile{
		ExternalID:    r.MembershipID,
		FirstName:     r.FirstName,
		MiddleInitial: r.MiddleInitial,
		LastName:      r.LastName,
		PhoneNumber:   r.PhoneNumber,
		Address:       r.Address,
	}
}

// MemberLoginRequest payload for POST /auth/member/login.
type MemberLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
