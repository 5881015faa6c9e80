package dto

import "github.com/spec-kit/aquarium-api/internal/domain"

// StaffRegisterRequest payload for POST /auth/register.
type StaffRegisterRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	StaffType     string `json:"staff_type"`
	StaffID       string `json:"staff_id"`
	FirstName     string `json:"first_name"`
	MiddleInitial string `json:"middle_initial"`
	LastName      string `json:"last_name"`
	PhoneNumber   string `json:"phone_number"`
	Address       string `json:"address"`
}

// Profile returns the display fields carried by the request.
func (r StaffRegisterRequest) Profile() domain.Profile {
	return domain.Profile{
		ExternalID:    r.StaffID,
		FirstName:     r.FirstName,
		MiddleInitial: r.MiddleInitial,
		LastName:      r.LastName,
		PhoneNumber:   r.PhoneNumber,
		Address:       r.Address,
	}
}

// StaffLoginRequest payload for POST /auth/login.
type StaffLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
