package appointments

import (
	"context"
	"errors"
	"testing"
)

type stubLifecycleStore struct {
	appt *Appointment

	statusWrites   []string
	probeErr       error
	upserted       map[string]int
	columnWrites   map[string]int
	statusErr      error
	notFound       bool
	durationByID   map[string]int
	legacyDuration *int
}

func newStubStore() *stubLifecycleStore {
	return &stubLifecycleStore{
		appt:         &Appointment{ID: "a-1", PatientID: "p-1", Status: StatusPending},
		upserted:     map[string]int{},
		columnWrites: map[string]int{},
		durationByID: map[string]int{},
	}
}

func (s *stubLifecycleStore) GetByID(ctx context.Context, id string) (*Appointment, error) {
	if s.notFound {
		return nil, ErrAppointmentNotFound
	}
	appt := *s.appt
	return &appt, nil
}

func (s *stubLifecycleStore) UpdateStatus(ctx context.Context, id, status string) error {
	if s.statusErr != nil {
		return s.statusErr
	}
	s.statusWrites = append(s.statusWrites, status)
	s.appt.Status = status
	return nil
}

func (s *stubLifecycleStore) ProbeDurationTable(ctx context.Context) error { return s.probeErr }

func (s *stubLifecycleStore) UpsertDuration(ctx context.Context, id string, minutes int) error {
	s.upserted[id] = minutes
	s.durationByID[id] = minutes
	return nil
}

func (s *stubLifecycleStore) SetDurationColumn(ctx context.Context, id string, minutes int) error {
	s.columnWrites[id] = minutes
	m := minutes
	s.legacyDuration = &m
	return nil
}

func (s *stubLifecycleStore) GetDuration(ctx context.Context, id string) (*int, error) {
	if minutes, ok := s.durationByID[id]; ok {
		return &minutes, nil
	}
	return s.legacyDuration, nil
}

type recordingNotifier struct {
	statuses []string
}

func (r *recordingNotifier) AppointmentStatusChanged(ctx context.Context, appt *Appointment, newStatus string) {
	r.statuses = append(r.statuses, newStatus)
}

func TestSetStatusWritesUnconditionally(t *testing.T) {
	store := newStubStore()
	notifier := &recordingNotifier{}
	lc := NewLifecycle(store, notifier, nil, nil)
	ctx := context.Background()

	// No guard: completed straight from pending, then back again.
	appt, err := lc.SetStatus(ctx, "a-1", StatusCompleted)
	if err != nil {
		t.Fatalf("set completed: %v", err)
	}
	if appt.Status != StatusCompleted {
		t.Fatalf("expected returned appointment updated, got %s", appt.Status)
	}
	if _, err := lc.SetStatus(ctx, "a-1", StatusPending); err != nil {
		t.Fatalf("set pending: %v", err)
	}

	if len(store.statusWrites) != 2 {
		t.Fatalf("expected 2 writes, got %v", store.statusWrites)
	}
	if len(notifier.statuses) != 2 {
		t.Fatalf("expected notifier called per transition, got %v", notifier.statuses)
	}
}

func TestSetStatusLastWriteWins(t *testing.T) {
	store := newStubStore()
	lc := NewLifecycle(store, nil, nil, nil)
	ctx := context.Background()

	// Two racing tabs: confirm then reject. Both succeed, the last write is
	// what persists.
	if _, err := lc.SetStatus(ctx, "a-1", StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := lc.SetStatus(ctx, "a-1", StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if store.appt.Status != StatusRejected {
		t.Fatalf("expected last write to persist, got %s", store.appt.Status)
	}
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	lc := NewLifecycle(newStubStore(), nil, nil, nil)
	if _, err := lc.SetStatus(context.Background(), "a-1", "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestSetStatusNotFound(t *testing.T) {
	store := newStubStore()
	store.notFound = true
	lc := NewLifecycle(store, nil, nil, nil)
	if _, err := lc.SetStatus(context.Background(), "ghost", StatusConfirmed); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestSetStatusWriteFailureLeavesStateUnchanged(t *testing.T) {
	store := newStubStore()
	store.statusErr = errors.New("connection reset")
	lc := NewLifecycle(store, nil, nil, nil)

	if _, err := lc.SetStatus(context.Background(), "a-1", StatusConfirmed); err == nil {
		t.Fatal("expected error surfaced")
	}
	if store.appt.Status != StatusPending {
		t.Fatalf("expected status unchanged on failure, got %s", store.appt.Status)
	}
}

func TestSetDurationUsesSideTable(t *testing.T) {
	store := newStubStore()
	lc := NewLifecycle(store, nil, nil, nil)
	ctx := context.Background()

	if err := lc.SetDuration(ctx, "a-1", 90); err != nil {
		t.Fatalf("set duration: %v", err)
	}
	if store.upserted["a-1"] != 90 {
		t.Fatalf("expected side-table upsert, got %v", store.upserted)
	}
	if len(store.columnWrites) != 0 {
		t.Fatalf("column should not be written when the table is reachable")
	}

	// Read-after-write through the compatibility path.
	got, err := lc.GetDuration(ctx, "a-1")
	if err != nil || got == nil || *got != 90 {
		t.Fatalf("expected 90 read back, got %v / %v", got, err)
	}
}

func TestSetDurationFallsBackToColumnWhenProbeFails(t *testing.T) {
	store := newStubStore()
	store.probeErr = errors.New(`relation "appointment_durations" does not exist`)
	lc := NewLifecycle(store, nil, nil, nil)
	ctx := context.Background()

	if err := lc.SetDuration(ctx, "a-1", 120); err != nil {
		t.Fatalf("set duration with fallback: %v", err)
	}
	if len(store.upserted) != 0 {
		t.Fatal("side table should not be written when the probe fails")
	}
	if store.columnWrites["a-1"] != 120 {
		t.Fatalf("expected legacy column write, got %v", store.columnWrites)
	}

	// Read-after-write holds regardless of which location was used.
	got, err := lc.GetDuration(ctx, "a-1")
	if err != nil || got == nil || *got != 120 {
		t.Fatalf("expected 120 read back from legacy column, got %v / %v", got, err)
	}
}

func TestSetDurationUpsertOverwrites(t *testing.T) {
	store := newStubStore()
	lc := NewLifecycle(store, nil, nil, nil)
	ctx := context.Background()

	if err := lc.SetDuration(ctx, "a-1", 30); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := lc.SetDuration(ctx, "a-1", 60); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if store.upserted["a-1"] != 60 {
		t.Fatalf("expected upsert to overwrite, got %d", store.upserted["a-1"])
	}
}

func TestSetDurationRejectsOffMenuValues(t *testing.T) {
	lc := NewLifecycle(newStubStore(), nil, nil, nil)
	for _, minutes := range []int{0, -30, 25, 300} {
		if err := lc.SetDuration(context.Background(), "a-1", minutes); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("SetDuration(%d): expected ErrInvalidDuration, got %v", minutes, err)
		}
	}
}
