package profiles

import "errors"

var (
	// ErrMissingName is returned when a profile has no name
	ErrMissingName = errors.New("full name is required")

	// ErrMissingEmail is returned when a profile has no email
	ErrMissingEmail = errors.New("email is required")

	// ErrInvalidRole is returned for roles outside the portal set
	ErrInvalidRole = errors.New("role must be one of admin, doctor, staff, patient")

	// ErrProfileNotFound is returned when a profile is not found
	ErrProfileNotFound = errors.New("profile not found")
)
