package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brightsmile-labs/dental-portal-api/internal/catalog"
	"github.com/brightsmile-labs/dental-portal-api/internal/observability/metrics"
	"github.com/brightsmile-labs/dental-portal-api/internal/profiles"
)

type stubApptSource struct {
	appts     []*Appointment
	links     []ServiceLink
	durations map[string]int

	apptsErr     error
	linksErr     error
	durationsErr error
}

func (s *stubApptSource) List(ctx context.Context, patientID string) ([]*Appointment, error) {
	if s.apptsErr != nil {
		return nil, s.apptsErr
	}
	if patientID == "" {
		return s.appts, nil
	}
	var out []*Appointment
	for _, a := range s.appts {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubApptSource) ListServiceLinks(ctx context.Context, ids []string) ([]ServiceLink, error) {
	return s.links, s.linksErr
}

func (s *stubApptSource) ListDurations(ctx context.Context, ids []string) (map[string]int, error) {
	if s.durationsErr != nil {
		return nil, s.durationsErr
	}
	return s.durations, nil
}

type stubProfileSource struct {
	profiles map[string]*profiles.Profile
	err      error
}

func (s *stubProfileSource) GetByIDs(ctx context.Context, ids []string) (map[string]*profiles.Profile, error) {
	return s.profiles, s.err
}

type stubServiceSource struct {
	services map[string]*catalog.Service
	err      error
}

func (s *stubServiceSource) GetServicesByIDs(ctx context.Context, ids []string) (map[string]*catalog.Service, error) {
	return s.services, s.err
}

func testFixtures() (*stubApptSource, *stubProfileSource, *stubServiceSource) {
	day := func(n int) time.Time { return time.Date(2025, 3, n, 0, 0, 0, 0, time.UTC) }
	legacy := 45
	appts := &stubApptSource{
		appts: []*Appointment{
			{ID: "a-1", PatientID: "p-1", Date: day(1), Time: "09:00", Status: StatusPending, Branch: "Makati"},
			{ID: "a-2", PatientID: "p-2", Date: day(2), Time: "10:30", Status: StatusConfirmed, Branch: "Quezon City"},
			{ID: "a-3", PatientID: "p-1", Date: day(3), Time: "14:00", Status: StatusCompleted, Branch: "Makati", DurationMinutes: &legacy},
		},
		links: []ServiceLink{
			{AppointmentID: "a-1", ServiceID: "s-1"},
			{AppointmentID: "a-2", ServiceID: "s-1"},
			{AppointmentID: "a-2", ServiceID: "s-2"},
		},
		durations: map[string]int{"a-2": 60},
	}
	profileSrc := &stubProfileSource{profiles: map[string]*profiles.Profile{
		"p-1": {ID: "p-1", FullName: "Ana Reyes", Email: "ana@example.com"},
		"p-2": {ID: "p-2", FullName: "Ben Santos"},
	}}
	serviceSrc := &stubServiceSource{services: map[string]*catalog.Service{
		"s-1": {ID: "s-1", Name: "Tooth Extraction"},
		"s-2": {ID: "s-2", Name: "Root Canal"},
	}}
	return appts, profileSrc, serviceSrc
}

func TestDirectoryAssemblesEnrichedEntries(t *testing.T) {
	appts, profileSrc, serviceSrc := testFixtures()
	dir := NewDirectory(appts, profileSrc, serviceSrc, nil, nil)

	result := dir.List(context.Background(), Filter{})
	if len(result.Incomplete) != 0 {
		t.Fatalf("expected complete result, got incomplete=%v", result.Incomplete)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(result.Entries))
	}

	// Ascending date order preserved through stitching.
	if result.Entries[0].ID != "a-1" || result.Entries[2].ID != "a-3" {
		t.Fatalf("unexpected order: %s, %s, %s",
			result.Entries[0].ID, result.Entries[1].ID, result.Entries[2].ID)
	}

	second := result.Entries[1]
	if second.PatientName != "Ben Santos" {
		t.Errorf("expected denormalized patient name, got %q", second.PatientName)
	}
	if len(second.Services) != 2 {
		t.Errorf("expected 2 services, got %v", second.Services)
	}
	if second.DurationMinutes == nil || *second.DurationMinutes != 60 {
		t.Errorf("expected 60m from duration table, got %v", second.DurationMinutes)
	}

	// Legacy column fallback when the side table has no row.
	third := result.Entries[2]
	if third.DurationMinutes == nil || *third.DurationMinutes != 45 {
		t.Errorf("expected 45m from legacy column, got %v", third.DurationMinutes)
	}
}

func TestDirectoryPatientScope(t *testing.T) {
	appts, profileSrc, serviceSrc := testFixtures()
	dir := NewDirectory(appts, profileSrc, serviceSrc, nil, nil)

	result := dir.List(context.Background(), Filter{PatientID: "p-1"})
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries for p-1, got %d", len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.PatientID != "p-1" {
			t.Errorf("entry %s leaked for patient %s", e.ID, e.PatientID)
		}
	}
}

func TestDirectoryStatusAndSearchFilters(t *testing.T) {
	appts, profileSrc, serviceSrc := testFixtures()
	dir := NewDirectory(appts, profileSrc, serviceSrc, nil, nil)
	ctx := context.Background()

	byStatus := dir.List(ctx, Filter{Status: StatusConfirmed})
	if len(byStatus.Entries) != 1 || byStatus.Entries[0].ID != "a-2" {
		t.Fatalf("status filter failed: %+v", byStatus.Entries)
	}

	// Search over patient name, case-insensitive.
	byName := dir.List(ctx, Filter{Search: "reyes"})
	if len(byName.Entries) != 2 {
		t.Fatalf("name search failed, got %d entries", len(byName.Entries))
	}
	for _, e := range byName.Entries {
		if e.PatientID != "p-1" {
			t.Fatalf("name search matched wrong patient: %+v", e)
		}
	}

	// A query can match across sections: "ana" hits Ana Reyes by name and
	// a-2 through the "Root Canal" service name.
	across := dir.List(ctx, Filter{Search: "ana"})
	if len(across.Entries) != 3 {
		t.Fatalf("cross-section search failed, got %d entries", len(across.Entries))
	}

	// Search over branch.
	byBranch := dir.List(ctx, Filter{Search: "quezon"})
	if len(byBranch.Entries) != 1 || byBranch.Entries[0].ID != "a-2" {
		t.Fatalf("branch search failed: %+v", byBranch.Entries)
	}

	// Search over service names.
	byService := dir.List(ctx, Filter{Search: "root canal"})
	if len(byService.Entries) != 1 || byService.Entries[0].ID != "a-2" {
		t.Fatalf("service search failed: %+v", byService.Entries)
	}
}

func TestDirectoryProfilesFailureIsBestEffort(t *testing.T) {
	appts, profileSrc, serviceSrc := testFixtures()
	profileSrc.err = errors.New("profiles table unavailable")
	dir := NewDirectory(appts, profileSrc, serviceSrc, nil, nil)

	result := dir.List(context.Background(), Filter{})
	if len(result.Entries) != 3 {
		t.Fatalf("listing should survive profile failure, got %d entries", len(result.Entries))
	}
	if result.Entries[0].PatientName != "Unknown" {
		t.Errorf("expected Unknown placeholder, got %q", result.Entries[0].PatientName)
	}
	if !containsSection(result.Incomplete, SectionProfiles) {
		t.Errorf("expected profiles flagged incomplete, got %v", result.Incomplete)
	}
}

func TestDirectoryServiceFailureKeepsPlaceholderNames(t *testing.T) {
	appts, profileSrc, serviceSrc := testFixtures()
	serviceSrc.err = errors.New("services table unavailable")
	dir := NewDirectory(appts, profileSrc, serviceSrc, nil, nil)

	result := dir.List(context.Background(), Filter{})
	if !containsSection(result.Incomplete, SectionServices) {
		t.Fatalf("expected services flagged incomplete, got %v", result.Incomplete)
	}
	for _, e := range result.Entries {
		for _, name := range e.Services {
			if name != "Unknown service" {
				t.Errorf("expected placeholder service names, got %q", name)
			}
		}
	}
}

func TestDirectoryBaseQueryFailureReturnsEmpty(t *testing.T) {
	appts, profileSrc, serviceSrc := testFixtures()
	appts.apptsErr = errors.New("connection refused")
	dir := NewDirectory(appts, profileSrc, serviceSrc, nil, nil)

	result := dir.List(context.Background(), Filter{})
	if len(result.Entries) != 0 {
		t.Fatalf("expected empty entries, got %d", len(result.Entries))
	}
	if !containsSection(result.Incomplete, SectionAppointments) {
		t.Fatalf("expected appointments flagged incomplete, got %v", result.Incomplete)
	}
}

func TestDirectoryBaseQueryFailureRecordsLatency(t *testing.T) {
	appts, profileSrc, serviceSrc := testFixtures()
	appts.apptsErr = errors.New("connection refused")
	reg := prometheus.NewRegistry()
	dir := NewDirectory(appts, profileSrc, serviceSrc, metrics.NewPortalMetrics(reg), nil)

	dir.List(context.Background(), Filter{})

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var samples uint64
	for _, mf := range mfs {
		if mf.GetName() == "portal_appointments_directory_assembly_seconds" {
			for _, m := range mf.GetMetric() {
				samples += m.GetHistogram().GetSampleCount()
			}
		}
	}
	if samples != 1 {
		t.Fatalf("expected one assembly latency sample, got %d", samples)
	}
}

func TestDirectoryDurationFailureFallsBackToColumn(t *testing.T) {
	appts, profileSrc, serviceSrc := testFixtures()
	appts.durationsErr = errors.New("relation does not exist")
	dir := NewDirectory(appts, profileSrc, serviceSrc, nil, nil)

	result := dir.List(context.Background(), Filter{})
	if !containsSection(result.Incomplete, SectionDurations) {
		t.Fatalf("expected durations flagged incomplete, got %v", result.Incomplete)
	}
	// a-3 still shows its legacy column value.
	var third *DirectoryEntry
	for _, e := range result.Entries {
		if e.ID == "a-3" {
			third = e
		}
	}
	if third == nil || third.DurationMinutes == nil || *third.DurationMinutes != 45 {
		t.Fatalf("expected legacy duration to survive, got %+v", third)
	}
}

func containsSection(sections []string, want string) bool {
	for _, s := range sections {
		if s == want {
			return true
		}
	}
	return false
}
