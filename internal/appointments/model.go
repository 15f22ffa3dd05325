package appointments

import "time"

// Appointment statuses. Transitions are deliberately unguarded: the portal
// has always allowed any status to be set from any other, and callers racing
// on the same appointment resolve last-write-wins.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether status is a known appointment status.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// AllowedDurations are the procedure lengths offered by the scheduling UI,
// in minutes.
var AllowedDurations = []int{15, 30, 45, 60, 90, 120, 180, 240}

// ValidDuration reports whether minutes is one of the offered lengths.
func ValidDuration(minutes int) bool {
	for _, d := range AllowedDurations {
		if minutes == d {
			return true
		}
	}
	return false
}

// Appointment is a booking row. Created by the patient booking flow; this
// service mutates only the status field and, on legacy rows, the
// duration_minutes column.
type Appointment struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	Date          time.Time `json:"appointment_date"`
	Time          string    `json:"appointment_time"`
	Status        string    `json:"status"`
	Branch        string    `json:"branch"`
	TeethInvolved string    `json:"teeth_involved,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	IsEmergency   bool      `json:"is_emergency"`

	// DurationMinutes is the legacy storage location for the procedure
	// duration, kept for rows written before the side table existed.
	DurationMinutes *int `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// ServiceLink is one appointment_services join row.
type ServiceLink struct {
	AppointmentID string
	ServiceID     string
}

// DirectoryEntry is an appointment enriched with the denormalized fields the
// portal screens render.
type DirectoryEntry struct {
	Appointment
	PatientName     string   `json:"patient_name"`
	PatientEmail    string   `json:"patient_email,omitempty"`
	PatientPhone    string   `json:"patient_phone,omitempty"`
	Services        []string `json:"services"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
}

// DirectoryResult is a best-effort assembled listing. Incomplete names the
// sections whose sub-query failed and were substituted with empty data, so
// callers can tell partial data from truly empty data.
type DirectoryResult struct {
	Entries    []*DirectoryEntry `json:"appointments"`
	Incomplete []string          `json:"incomplete,omitempty"`
}

// Directory assembly section names reported in DirectoryResult.Incomplete.
const (
	SectionAppointments = "appointments"
	SectionProfiles     = "profiles"
	SectionServiceLinks = "service_links"
	SectionServices     = "services"
	SectionDurations    = "durations"
)

// Filter narrows a directory listing. All fields are optional.
type Filter struct {
	PatientID string
	Status    string
	Search    string
}

// SetStatusRequest is the body of a status transition.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// SetDurationRequest is the body of a duration write.
type SetDurationRequest struct {
	Minutes int `json:"minutes"`
}
