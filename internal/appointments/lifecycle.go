package appointments

import (
	"context"

	"github.com/brightsmile-labs/dental-portal-api/internal/observability/metrics"
	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

// StatusNotifier is told about applied transitions so the patient can be
// emailed. Notification failures never fail the transition.
type StatusNotifier interface {
	AppointmentStatusChanged(ctx context.Context, appt *Appointment, newStatus string)
}

// LifecycleStore is the repository subset the controller writes through.
type LifecycleStore interface {
	GetByID(ctx context.Context, id string) (*Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ProbeDurationTable(ctx context.Context) error
	UpsertDuration(ctx context.Context, appointmentID string, minutes int) error
	SetDurationColumn(ctx context.Context, appointmentID string, minutes int) error
	GetDuration(ctx context.Context, appointmentID string) (*int, error)
}

// Lifecycle applies appointment status transitions and duration writes.
//
// Transitions are not guarded by a state machine: any status may be set from
// any other, matching how the portal has always behaved. Two callers racing
// on the same appointment both succeed and the last write persists.
type Lifecycle struct {
	store    LifecycleStore
	notifier StatusNotifier
	metrics  *metrics.PortalMetrics
	logger   *logging.Logger
}

// NewLifecycle creates the controller. notifier may be nil.
func NewLifecycle(store LifecycleStore, notifier StatusNotifier, m *metrics.PortalMetrics, logger *logging.Logger) *Lifecycle {
	if logger == nil {
		logger = logging.Default()
	}
	return &Lifecycle{store: store, notifier: notifier, metrics: m, logger: logger}
}

// SetStatus writes the new status unconditionally and returns the updated
// appointment.
func (l *Lifecycle) SetStatus(ctx context.Context, appointmentID, newStatus string) (*Appointment, error) {
	if !ValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	appt, err := l.store.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := l.store.UpdateStatus(ctx, appointmentID, newStatus); err != nil {
		return nil, err
	}

	prior := appt.Status
	appt.Status = newStatus
	l.metrics.ObserveTransition(newStatus)
	l.logger.Info("appointment status changed",
		"appointment_id", appointmentID, "from", prior, "to", newStatus)

	if l.notifier != nil {
		l.notifier.AppointmentStatusChanged(ctx, appt, newStatus)
	}
	return appt, nil
}

// SetDuration records the procedure duration for an appointment. The
// duration side table is the source of truth; when a probe shows it
// unreachable the write falls back to the legacy duration column on the
// appointment row, so the value is never lost on deployments that have not
// run the side-table migration yet.
func (l *Lifecycle) SetDuration(ctx context.Context, appointmentID string, minutes int) error {
	if !ValidDuration(minutes) {
		return ErrInvalidDuration
	}

	if _, err := l.store.GetByID(ctx, appointmentID); err != nil {
		return err
	}

	if probeErr := l.store.ProbeDurationTable(ctx); probeErr != nil {
		l.logger.Warn("duration table unreachable, writing legacy column",
			"appointment_id", appointmentID, "error", probeErr)
		return l.store.SetDurationColumn(ctx, appointmentID, minutes)
	}

	return l.store.UpsertDuration(ctx, appointmentID, minutes)
}

// GetDuration reads back a duration through the compatibility path.
func (l *Lifecycle) GetDuration(ctx context.Context, appointmentID string) (*int, error) {
	return l.store.GetDuration(ctx, appointmentID)
}
