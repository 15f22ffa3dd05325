package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brightsmile-labs/dental-portal-api/internal/appointments"
	"github.com/brightsmile-labs/dental-portal-api/internal/profiles"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

type stubDirectory struct {
	profiles map[string]*profiles.Profile
}

func (d *stubDirectory) GetByID(_ context.Context, id string) (*profiles.Profile, error) {
	p, ok := d.profiles[id]
	if !ok {
		return nil, profiles.ErrProfileNotFound
	}
	return p, nil
}

func testAppointment() *appointments.Appointment {
	return &appointments.Appointment{
		ID:        "a-1",
		PatientID: "p-1",
		Date:      time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
		Time:      "10:30",
		Branch:    "Makati",
		Status:    appointments.StatusPending,
	}
}

func TestStatusChangeEmailsPatient(t *testing.T) {
	sender := &recordingSender{}
	dir := &stubDirectory{profiles: map[string]*profiles.Profile{
		"p-1": {ID: "p-1", FullName: "Maria Santos", Email: "maria@example.com"},
	}}
	svc := NewService(sender, dir, Config{ClinicName: "BrightSmile Dental"}, nil)

	svc.AppointmentStatusChanged(context.Background(), testAppointment(), appointments.StatusConfirmed)

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "maria@example.com" {
		t.Fatalf("expected patient email, got %q", msg.To)
	}
	if msg.Subject != "Your appointment has been confirmed" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
}

func TestStatusChangeUnknownPatientIsSwallowed(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, &stubDirectory{profiles: map[string]*profiles.Profile{}}, Config{}, nil)

	svc.AppointmentStatusChanged(context.Background(), testAppointment(), appointments.StatusCancelled)

	if len(sender.sent) != 0 {
		t.Fatalf("expected no email for unknown patient, got %d", len(sender.sent))
	}
}

func TestStatusChangeSendFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("ses throttled")}
	dir := &stubDirectory{profiles: map[string]*profiles.Profile{
		"p-1": {ID: "p-1", FullName: "Maria Santos", Email: "maria@example.com"},
	}}
	svc := NewService(sender, dir, Config{}, nil)

	// Must not panic or propagate the error.
	svc.AppointmentStatusChanged(context.Background(), testAppointment(), appointments.StatusRejected)
}

func TestStatusChangeNilSenderIsNoop(t *testing.T) {
	svc := NewService(nil, &stubDirectory{}, Config{}, nil)
	svc.AppointmentStatusChanged(context.Background(), testAppointment(), appointments.StatusCompleted)
}

func TestStubEmailSender(t *testing.T) {
	s := NewStubEmailSender(nil)
	if err := s.Send(context.Background(), EmailMessage{To: "x@example.com", Subject: "hi"}); err != nil {
		t.Fatalf("stub send: %v", err)
	}
}
