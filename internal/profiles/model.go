package profiles

import (
	"strings"
	"time"

	"github.com/brightsmile-labs/dental-portal-api/internal/identity"
)

// Profile is a portal user as stored in the profiles table. Authentication
// identities are owned by the hosted auth service; a profile row carries the
// portal-facing fields keyed by the same id.
type Profile struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName prefers the stored full name and falls back to joining the
// split parts.
func (p *Profile) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// SplitFullName splits a free-form full name into first/last on the first
// whitespace run. Single-word names become the first name with an empty last
// name. This mirrors how legacy profile rows were populated.
func SplitFullName(fullName string) (first, last string) {
	fields := strings.Fields(fullName)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// CreateProfileRequest is the admin request for creating a portal user.
type CreateProfileRequest struct {
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Validate checks required fields and role membership.
func (r *CreateProfileRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if !identity.ValidRole(r.Role) {
		return ErrInvalidRole
	}
	return nil
}

// UpdateProfileRequest carries optional field updates; nil means unchanged.
type UpdateProfileRequest struct {
	Role     *string `json:"role"`
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// Validate rejects updates that would set an unknown role or blank out
// required fields.
func (r *UpdateProfileRequest) Validate() error {
	if r.Role != nil && !identity.ValidRole(*r.Role) {
		return ErrInvalidRole
	}
	if r.FullName != nil && strings.TrimSpace(*r.FullName) == "" {
		return ErrMissingName
	}
	if r.Email != nil && strings.TrimSpace(*r.Email) == "" {
		return ErrMissingEmail
	}
	return nil
}
