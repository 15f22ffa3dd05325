package catalog

import (
	"context"
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

// Repository reads the service catalog. The catalog is maintained elsewhere;
// this side only reads it.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by pgx.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{pool: pool}
}

// ListServices returns active services ordered by name.
func (r *Repository) ListServices(ctx context.Context) ([]*Service, error) {
	query := `
		SELECT id, name, description, price, active, created_at
		FROM services
		WHERE active
		ORDER BY name ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services failed: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan service failed: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: rows failed: %w", err)
	}
	return out, nil
}

// GetServicesByIDs returns the named services keyed by id. Unknown ids are
// absent from the map.
func (r *Repository) GetServicesByIDs(ctx context.Context, ids []string) (map[string]*Service, error) {
	out := make(map[string]*Service, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `
		SELECT id, name, description, price, active, created_at
		FROM services
		WHERE id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog: select by ids failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan service failed: %w", err)
		}
		out[s.ID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: rows failed: %w", err)
	}
	return out, nil
}

// ListDoctorPricing returns the per-doctor price overrides joined with the
// service name.
func (r *Repository) ListDoctorPricing(ctx context.Context, doctorID string) ([]*DoctorPrice, error) {
	query := `
		SELECT dsp.doctor_id, dsp.service_id, s.name, dsp.price
		FROM doctor_service_pricing dsp
		JOIN services s ON s.id = dsp.service_id
		WHERE dsp.doctor_id = $1
		ORDER BY s.name ASC
	`
	rows, err := r.pool.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list doctor pricing failed: %w", err)
	}
	defer rows.Close()

	var out []*DoctorPrice
	for rows.Next() {
		var p DoctorPrice
		if err := rows.Scan(&p.DoctorID, &p.ServiceID, &p.Service, &p.Price); err != nil {
			return nil, fmt.Errorf("catalog: scan pricing failed: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: rows failed: %w", err)
	}
	return out, nil
}
