package appointments

import "errors"

var (
	// ErrAppointmentNotFound is returned when an appointment is not found
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrInvalidStatus is returned for statuses outside the known set
	ErrInvalidStatus = errors.New("status must be one of pending, confirmed, rejected, completed, cancelled")

	// ErrInvalidDuration is returned for durations outside the offered lengths
	ErrInvalidDuration = errors.New("duration must be one of the offered lengths")
)
