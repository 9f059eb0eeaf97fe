package patients

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func createPatientReq(first, last, email string) *CreatePatientRequest {
	return &CreatePatientRequest{
		PracticeID: "practice-1",
		FirstName:  first,
		LastName:   last,
		Email:      email,
	}
}

func TestInMemoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	p, err := repo.Create(ctx, createPatientReq("Anna", "Becker", "anna@example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, "practice-1", p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LastName != "Becker" {
		t.Errorf("last name = %s", got.LastName)
	}

	if _, err := repo.GetByID(ctx, "practice-2", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign practice must not see the patient, got %v", err)
	}
}

func TestInMemoryCreate_Validation(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	cases := []struct {
		name string
		req  *CreatePatientRequest
		want error
	}{
		{"missing practice", &CreatePatientRequest{FirstName: "A", LastName: "B", Email: "a@b.de"}, ErrMissingPracticeID},
		{"missing name", &CreatePatientRequest{PracticeID: "p", Email: "a@b.de"}, ErrMissingName},
		{"missing contact", &CreatePatientRequest{PracticeID: "p", FirstName: "A", LastName: "B"}, ErrMissingContact},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := repo.Create(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestInMemoryList_Search(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for _, req := range []*CreatePatientRequest{
		createPatientReq("Anna", "Becker", "anna@example.com"),
		createPatientReq("Jonas", "Vogel", "jonas@example.com"),
		createPatientReq("Mara", "Klein", "mara@example.com"),
	} {
		if _, err := repo.Create(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	list, err := repo.List(ctx, "practice-1", ListFilter{Search: "vogel"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].FirstName != "Jonas" {
		t.Errorf("unexpected search result %+v", list)
	}

	all, err := repo.List(ctx, "practice-1", ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].LastName != "Becker" {
		t.Errorf("expected 3 patients sorted by last name, got %+v", all)
	}
}

func TestInMemoryDelete(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	p, err := repo.Create(ctx, createPatientReq("Anna", "Becker", "anna@example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, "practice-1", p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.GetByID(ctx, "practice-1", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

var patientCols = []string{
	"id", "practice_id", "first_name", "last_name", "email", "phone",
	"date_of_birth", "insurance_number", "notes", "created_at", "updated_at",
}

func TestPostgresCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO patients").
		WithArgs(
			pgxmock.AnyArg(), "practice-1", "Anna", "Becker", "anna@example.com", "",
			"", "", "", pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresRepository(mock)
	p, err := repo.Create(context.Background(), createPatientReq("Anna", "Becker", "anna@example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" {
		t.Error("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDelete_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("DELETE FROM patients").
		WithArgs("practice-1", "missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewPostgresRepository(mock)
	if err := repo.Delete(context.Background(), "practice-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
