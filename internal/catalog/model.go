package catalog

import "time"

// Service is a catalog entry offered by the clinic.
type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// DoctorPrice is a per-doctor override of a service price.
type DoctorPrice struct {
	DoctorID  string  `json:"doctor_id"`
	ServiceID string  `json:"service_id"`
	Service   string  `json:"service"`
	Price     float64 `json:"price"`
}
