package appointments

import (
	"context"
	"strings"
	"time"

	"github.com/brightsmile-labs/dental-portal-api/internal/catalog"
	"github.com/brightsmile-labs/dental-portal-api/internal/observability/metrics"
	"github.com/brightsmile-labs/dental-portal-api/internal/profiles"
	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

// ProfileSource supplies patient profiles for denormalization.
type ProfileSource interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*profiles.Profile, error)
}

// ServiceSource supplies service rows for denormalization.
type ServiceSource interface {
	GetServicesByIDs(ctx context.Context, ids []string) (map[string]*catalog.Service, error)
}

// AppointmentSource is the repository subset the directory reads from.
type AppointmentSource interface {
	List(ctx context.Context, patientID string) ([]*Appointment, error)
	ListServiceLinks(ctx context.Context, appointmentIDs []string) ([]ServiceLink, error)
	ListDurations(ctx context.Context, appointmentIDs []string) (map[string]int, error)
}

// Directory assembles the enriched appointment listing. The backing store
// cannot be relied on for a single five-way join, so the directory issues
// the sub-queries independently and stitches results with id-keyed maps.
// A failed sub-query is logged, counted, and substituted with empty data;
// the listing itself never hard-fails. Sections that were substituted are
// reported in DirectoryResult.Incomplete so callers can surface staleness
// instead of silently rendering "Unknown".
type Directory struct {
	repo     AppointmentSource
	profiles ProfileSource
	services ServiceSource
	metrics  *metrics.PortalMetrics
	logger   *logging.Logger
}

// NewDirectory creates a directory over the given sources.
func NewDirectory(repo AppointmentSource, profileSrc ProfileSource, serviceSrc ServiceSource, m *metrics.PortalMetrics, logger *logging.Logger) *Directory {
	if logger == nil {
		logger = logging.Default()
	}
	return &Directory{
		repo:     repo,
		profiles: profileSrc,
		services: serviceSrc,
		metrics:  m,
		logger:   logger,
	}
}

// List returns the assembled, filtered directory. Ordering is ascending by
// appointment date (the base query's order is preserved through stitching).
func (d *Directory) List(ctx context.Context, filter Filter) *DirectoryResult {
	start := time.Now()
	result := &DirectoryResult{Entries: []*DirectoryEntry{}}

	appts, err := d.repo.List(ctx, filter.PatientID)
	if err != nil {
		d.sectionFailed(result, SectionAppointments, err)
		d.metrics.ObserveAssemblyLatency(time.Since(start).Seconds())
		return result
	}
	if len(appts) == 0 {
		d.metrics.ObserveAssemblyLatency(time.Since(start).Seconds())
		return result
	}

	apptIDs := make([]string, 0, len(appts))
	patientIDSet := make(map[string]struct{}, len(appts))
	for _, a := range appts {
		apptIDs = append(apptIDs, a.ID)
		patientIDSet[a.PatientID] = struct{}{}
	}
	patientIDs := make([]string, 0, len(patientIDSet))
	for id := range patientIDSet {
		patientIDs = append(patientIDs, id)
	}

	profileMap, err := d.profiles.GetByIDs(ctx, patientIDs)
	if err != nil {
		d.sectionFailed(result, SectionProfiles, err)
		profileMap = nil
	}

	links, err := d.repo.ListServiceLinks(ctx, apptIDs)
	if err != nil {
		d.sectionFailed(result, SectionServiceLinks, err)
		links = nil
	}

	serviceIDSet := make(map[string]struct{}, len(links))
	for _, l := range links {
		serviceIDSet[l.ServiceID] = struct{}{}
	}
	serviceIDs := make([]string, 0, len(serviceIDSet))
	for id := range serviceIDSet {
		serviceIDs = append(serviceIDs, id)
	}
	serviceMap := map[string]*catalog.Service{}
	if len(serviceIDs) > 0 {
		serviceMap, err = d.services.GetServicesByIDs(ctx, serviceIDs)
		if err != nil {
			d.sectionFailed(result, SectionServices, err)
			serviceMap = map[string]*catalog.Service{}
		}
	}

	durations, err := d.repo.ListDurations(ctx, apptIDs)
	if err != nil {
		d.sectionFailed(result, SectionDurations, err)
		durations = nil
	}

	servicesByAppt := make(map[string][]string, len(appts))
	for _, l := range links {
		name := "Unknown service"
		if svc, ok := serviceMap[l.ServiceID]; ok {
			name = svc.Name
		}
		servicesByAppt[l.AppointmentID] = append(servicesByAppt[l.AppointmentID], name)
	}

	for _, a := range appts {
		entry := &DirectoryEntry{
			Appointment: *a,
			Services:    servicesByAppt[a.ID],
		}
		if entry.Services == nil {
			entry.Services = []string{}
		}
		if p, ok := profileMap[a.PatientID]; ok {
			entry.PatientName = p.DisplayName()
			entry.PatientEmail = p.Email
			entry.PatientPhone = p.Phone
		} else {
			entry.PatientName = "Unknown"
		}
		if minutes, ok := durations[a.ID]; ok {
			m := minutes
			entry.DurationMinutes = &m
		} else if a.DurationMinutes != nil {
			// Legacy rows keep the duration on the appointment itself.
			entry.DurationMinutes = a.DurationMinutes
		}
		if matchesFilter(entry, filter) {
			result.Entries = append(result.Entries, entry)
		}
	}

	d.metrics.ObserveAssemblyLatency(time.Since(start).Seconds())
	return result
}

func (d *Directory) sectionFailed(result *DirectoryResult, section string, err error) {
	d.logger.Warn("directory sub-query failed, continuing with empty section",
		"section", section, "error", err)
	d.metrics.ObserveSectionFailure(section)
	result.Incomplete = append(result.Incomplete, section)
}

// matchesFilter applies the status tab and free-text search. Search matches
// patient name, branch, and service names, case-insensitive substring.
func matchesFilter(e *DirectoryEntry, f Filter) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.PatientName), q) {
		return true
	}
	if strings.Contains(strings.ToLower(e.Branch), q) {
		return true
	}
	for _, svc := range e.Services {
		if strings.Contains(strings.ToLower(svc), q) {
			return true
		}
	}
	return false
}
