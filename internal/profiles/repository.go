package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists profiles in Postgres.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by pgx.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("profiles: pgx pool required")
	}
	return &Repository{pool: pool}
}

// Create inserts a new profile row, splitting the full name into parts.
func (r *Repository) Create(ctx context.Context, req *CreateProfileRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	first, last := SplitFullName(req.FullName)
	id := uuid.New()
	query := `
		INSERT INTO profiles (id, role, first_name, last_name, full_name, email, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.Role,
		first,
		last,
		req.FullName,
		req.Email,
		req.Phone,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("profiles: insert failed: %w", err)
	}

	return &Profile{
		ID:        id.String(),
		Role:      req.Role,
		FirstName: first,
		LastName:  last,
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: createdAt,
	}, nil
}

const profileColumns = `id, role, first_name, last_name, full_name, email, phone, created_at`

// GetByID fetches a single profile.
func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	var p Profile
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Role, &p.FirstName, &p.LastName, &p.FullName, &p.Email, &p.Phone, &p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("profiles: select failed: %w", err)
	}
	return &p, nil
}

// GetByIDs returns the profiles for the given id set keyed by id. Missing ids
// are simply absent from the map.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) (map[string]*Profile, error) {
	out := make(map[string]*Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("profiles: select by ids failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p Profile
		if err := rows.Scan(
			&p.ID, &p.Role, &p.FirstName, &p.LastName, &p.FullName, &p.Email, &p.Phone, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("profiles: scan failed: %w", err)
		}
		out[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profiles: rows failed: %w", err)
	}
	return out, nil
}

// List returns profiles, optionally filtered by role, newest first.
func (r *Repository) List(ctx context.Context, role string, limit, offset int) ([]*Profile, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + profileColumns + ` FROM profiles`
	args := []any{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("profiles: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(
			&p.ID, &p.Role, &p.FirstName, &p.LastName, &p.FullName, &p.Email, &p.Phone, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("profiles: scan failed: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profiles: rows failed: %w", err)
	}
	return out, nil
}

// Update applies the non-nil fields of req and returns the updated row.
func (r *Repository) Update(ctx context.Context, id string, req *UpdateProfileRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		current.Role = *req.Role
	}
	if req.FullName != nil {
		current.FullName = *req.FullName
		current.FirstName, current.LastName = SplitFullName(*req.FullName)
	}
	if req.Email != nil {
		current.Email = *req.Email
	}
	if req.Phone != nil {
		current.Phone = *req.Phone
	}

	query := `
		UPDATE profiles
		SET role = $2, first_name = $3, last_name = $4, full_name = $5, email = $6, phone = $7
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		id, current.Role, current.FirstName, current.LastName, current.FullName, current.Email, current.Phone,
	)
	if err != nil {
		return nil, fmt.Errorf("profiles: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrProfileNotFound
	}
	return current, nil
}
