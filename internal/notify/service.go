package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/brightsmile-labs/dental-portal-api/internal/appointments"
	"github.com/brightsmile-labs/dental-portal-api/internal/profiles"
	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

// ProfileDirectory looks up the patient behind an appointment.
type ProfileDirectory interface {
	GetByID(ctx context.Context, id string) (*profiles.Profile, error)
}

// Service emails patients about appointment status changes. Every method is
// best-effort: a lookup or send failure is logged and swallowed so the
// triggering operation is never blocked on email delivery.
type Service struct {
	sender     EmailSender
	dir        ProfileDirectory
	clinicName string
	logger     *logging.Logger
}

// Config holds configuration for the notification service.
type Config struct {
	ClinicName string
}

// NewService creates a notification service. sender may be nil, in which
// case notifications are dropped with a log line.
func NewService(sender EmailSender, dir ProfileDirectory, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ClinicName == "" {
		cfg.ClinicName = "BrightSmile Dental"
	}
	return &Service{sender: sender, dir: dir, clinicName: cfg.ClinicName, logger: logger}
}

var statusLines = map[string]string{
	appointments.StatusPending:   "is awaiting confirmation",
	appointments.StatusConfirmed: "has been confirmed",
	appointments.StatusRejected:  "could not be accommodated",
	appointments.StatusCompleted: "has been marked completed",
	appointments.StatusCancelled: "has been cancelled",
}

// AppointmentStatusChanged emails the patient about an applied status
// transition.
func (s *Service) AppointmentStatusChanged(ctx context.Context, appt *appointments.Appointment, newStatus string) {
	if s.sender == nil {
		s.logger.Debug("email disabled, skipping status notification", "appointment_id", appt.ID)
		return
	}

	patient, err := s.dir.GetByID(ctx, appt.PatientID)
	if err != nil {
		s.logger.Warn("status notification skipped, patient lookup failed",
			"appointment_id", appt.ID, "patient_id", appt.PatientID, "error", err)
		return
	}
	if patient.Email == "" {
		s.logger.Warn("status notification skipped, patient has no email",
			"appointment_id", appt.ID, "patient_id", appt.PatientID)
		return
	}

	line, ok := statusLines[newStatus]
	if !ok {
		line = fmt.Sprintf("is now %s", newStatus)
	}

	when := appt.Date.Format("Monday, January 2, 2006")
	if t := strings.TrimSpace(appt.Time); t != "" {
		when += " at " + t
	}

	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.DisplayName(),
		Subject: fmt.Sprintf("Your appointment %s", line),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour appointment on %s at our %s branch %s.\n\nIf you have questions, reply to this email or call the clinic.\n\n%s",
			patient.DisplayName(), when, appt.Branch, line, s.clinicName),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("status notification send failed",
			"appointment_id", appt.ID, "patient_id", appt.PatientID, "error", err)
		return
	}
	s.logger.Info("status notification sent",
		"appointment_id", appt.ID, "patient_id", appt.PatientID, "status", newStatus)
}

// Ensure interface compliance
var _ appointments.StatusNotifier = (*Service)(nil)
