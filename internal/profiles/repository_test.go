package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/brightsmile-labs/dental-portal-api/internal/identity"
)

func TestCreateSplitsName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := &Repository{pool: mock}
	mock.ExpectQuery("INSERT INTO profiles").
		WithArgs(pgxmock.AnyArg(), identity.RolePatient, "Maria", "de la Cruz", "Maria de la Cruz", "maria@example.com", "+63 900 000 0000").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	p, err := repo.Create(context.Background(), &CreateProfileRequest{
		Role:     identity.RolePatient,
		FullName: "Maria de la Cruz",
		Email:    "maria@example.com",
		Phone:    "+63 900 000 0000",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.FirstName != "Maria" || p.LastName != "de la Cruz" {
		t.Fatalf("name split mismatch: %q / %q", p.FirstName, p.LastName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := &Repository{pool: mock}
	_, err = repo.Create(context.Background(), &CreateProfileRequest{
		Role:     "receptionist-bot",
		FullName: "X Y",
		Email:    "x@example.com",
	})
	if err != ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestGetByIDsEmptySkipsQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := &Repository{pool: mock}
	got, err := repo.GetByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %d entries", len(got))
	}
}

func TestGetByIDsKeysByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "role", "first_name", "last_name", "full_name", "email", "phone", "created_at"}).
		AddRow("p-1", "patient", "Ana", "Reyes", "Ana Reyes", "ana@example.com", "", now).
		AddRow("p-2", "patient", "Ben", "Santos", "Ben Santos", "ben@example.com", "", now)
	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE id = ANY").
		WithArgs([]string{"p-1", "p-2"}).
		WillReturnRows(rows)

	repo := &Repository{pool: mock}
	got, err := repo.GetByIDs(context.Background(), []string{"p-1", "p-2"})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if got["p-1"] == nil || got["p-1"].DisplayName() != "Ana Reyes" {
		t.Fatalf("unexpected map contents: %+v", got)
	}
}

func TestUpdateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	repo := &Repository{pool: mock}
	if _, err := repo.Update(context.Background(), "missing", &UpdateProfileRequest{}); err != ErrProfileNotFound {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"", "", ""},
		{"Cher", "Cher", ""},
		{"Juan dela Cruz", "Juan", "dela Cruz"},
		{"  spaced   out  name ", "spaced", "out name"},
	}
	for _, tt := range tests {
		first, last := SplitFullName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("SplitFullName(%q) = %q/%q, want %q/%q", tt.in, first, last, tt.first, tt.last)
		}
	}
}
