package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the pool subset the repository needs; pgxmock satisfies it.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists appointments and their duration side table.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by pgx.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{pool: pool}
}

const appointmentColumns = `id, patient_id, appointment_date, appointment_time, status, branch,
		COALESCE(teeth_involved, ''), COALESCE(notes, ''), is_emergency, duration_minutes, created_at`

func scanAppointment(row pgx.Row, a *Appointment) error {
	return row.Scan(
		&a.ID, &a.PatientID, &a.Date, &a.Time, &a.Status, &a.Branch,
		&a.TeethInvolved, &a.Notes, &a.IsEmergency, &a.DurationMinutes, &a.CreatedAt,
	)
}

// GetByID fetches a single appointment.
func (r *Repository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var a Appointment
	if err := scanAppointment(r.pool.QueryRow(ctx, query, id), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return &a, nil
}

// List returns appointments ascending by date, optionally scoped to one
// patient.
func (r *Repository) List(ctx context.Context, patientID string) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	args := []any{}
	if patientID != "" {
		query += ` WHERE patient_id = $1`
		args = append(args, patientID)
	}
	query += ` ORDER BY appointment_date ASC, appointment_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		var a Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows failed: %w", err)
	}
	return out, nil
}

// ListServiceLinks returns the appointment→service join rows for the given
// appointments.
func (r *Repository) ListServiceLinks(ctx context.Context, appointmentIDs []string) ([]ServiceLink, error) {
	if len(appointmentIDs) == 0 {
		return nil, nil
	}
	query := `SELECT appointment_id, service_id FROM appointment_services WHERE appointment_id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, appointmentIDs)
	if err != nil {
		return nil, fmt.Errorf("appointments: list service links failed: %w", err)
	}
	defer rows.Close()

	var out []ServiceLink
	for rows.Next() {
		var l ServiceLink
		if err := rows.Scan(&l.AppointmentID, &l.ServiceID); err != nil {
			return nil, fmt.Errorf("appointments: scan link failed: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows failed: %w", err)
	}
	return out, nil
}

// ListDurations returns duration rows keyed by appointment id.
func (r *Repository) ListDurations(ctx context.Context, appointmentIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(appointmentIDs))
	if len(appointmentIDs) == 0 {
		return out, nil
	}
	query := `SELECT appointment_id, duration_minutes FROM appointment_durations WHERE appointment_id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, appointmentIDs)
	if err != nil {
		return nil, fmt.Errorf("appointments: list durations failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var minutes int
		if err := rows.Scan(&id, &minutes); err != nil {
			return nil, fmt.Errorf("appointments: scan duration failed: %w", err)
		}
		out[id] = minutes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows failed: %w", err)
	}
	return out, nil
}

// UpdateStatus writes the status field unconditionally. There is no
// precondition on the prior status; concurrent writers resolve
// last-write-wins.
func (r *Repository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("appointments: update status failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// ProbeDurationTable issues a cheap existence query against the duration
// side table. An error indicates the table is unreachable (most commonly a
// missing migration) and duration writes should fall back to the legacy
// column.
func (r *Repository) ProbeDurationTable(ctx context.Context) error {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM appointment_durations LIMIT 1`).Scan(&one)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("appointments: duration table probe failed: %w", err)
	}
	return nil
}

// UpsertDuration inserts or updates the duration row for an appointment.
func (r *Repository) UpsertDuration(ctx context.Context, appointmentID string, minutes int) error {
	query := `
		INSERT INTO appointment_durations (appointment_id, duration_minutes)
		VALUES ($1, $2)
		ON CONFLICT (appointment_id)
		DO UPDATE SET duration_minutes = EXCLUDED.duration_minutes, updated_at = now()
	`
	if _, err := r.pool.Exec(ctx, query, appointmentID, minutes); err != nil {
		return fmt.Errorf("appointments: upsert duration failed: %w", err)
	}
	return nil
}

// SetDurationColumn writes the legacy duration column on the appointment row
// itself. Used only when the side table is unreachable.
func (r *Repository) SetDurationColumn(ctx context.Context, appointmentID string, minutes int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointments SET duration_minutes = $2 WHERE id = $1`, appointmentID, minutes)
	if err != nil {
		return fmt.Errorf("appointments: set duration column failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// GetDuration reads the duration for one appointment, preferring the side
// table and falling back to the legacy column. The side table is the source
// of truth; the column read path exists for rows written before the table
// did.
func (r *Repository) GetDuration(ctx context.Context, appointmentID string) (*int, error) {
	var minutes int
	err := r.pool.QueryRow(ctx,
		`SELECT duration_minutes FROM appointment_durations WHERE appointment_id = $1`, appointmentID,
	).Scan(&minutes)
	if err == nil {
		return &minutes, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		// Table unreachable or query failed; try the legacy column before
		// giving up.
		var legacy *int
		colErr := r.pool.QueryRow(ctx,
			`SELECT duration_minutes FROM appointments WHERE id = $1`, appointmentID,
		).Scan(&legacy)
		if colErr != nil {
			if errors.Is(colErr, pgx.ErrNoRows) {
				return nil, ErrAppointmentNotFound
			}
			return nil, fmt.Errorf("appointments: duration read failed: %w", err)
		}
		return legacy, nil
	}

	var legacy *int
	err = r.pool.QueryRow(ctx,
		`SELECT duration_minutes FROM appointments WHERE id = $1`, appointmentID,
	).Scan(&legacy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: legacy duration read failed: %w", err)
	}
	return legacy, nil
}
