package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

var apptCols = []string{
	"id", "practice_id", "patient_id", "appointment_date", "appointment_time", "duration_minutes",
	"service", "status", "source", "patient_first_name", "patient_last_name", "patient_email",
	"notes", "created_at", "updated_at",
}

func apptRow(mockRows *pgxmock.Rows, id, date, timeStr string, minutes int) *pgxmock.Rows {
	now := time.Now().UTC()
	return mockRows.AddRow(
		id, "practice-1", nil, date, timeStr, minutes,
		"Kontrolle", StatusScheduled, SourcePortal, "Anna", "Becker", "anna@example.com",
		"", now, now,
	)
}

func TestPostgresCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(
			pgxmock.AnyArg(), "practice-1", pgxmock.AnyArg(), "2024-01-15", "10:00", 30,
			"Kontrolle", StatusScheduled, SourcePortal, "Anna", "Becker", "anna@example.com",
			"", pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresRepository(mock)
	appt, err := repo.Create(context.Background(), &CreateAppointmentRequest{
		PracticeID:       "practice-1",
		Date:             "2024-01-15",
		Time:             "10:00",
		DurationMinutes:  30,
		Service:          "Kontrolle",
		PatientFirstName: "Anna",
		PatientLastName:  "Becker",
		PatientEmail:     "anna@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.ID == "" || appt.Status != StatusScheduled || appt.Source != SourcePortal {
		t.Errorf("unexpected appointment %+v", appt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCreate_InvalidRequest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	_, err = repo.Create(context.Background(), &CreateAppointmentRequest{
		PracticeID: "practice-1",
		Date:       "2024-01-15",
		Time:       "25:00",
	})
	if !errors.Is(err, ErrInvalidDateTime) {
		t.Errorf("expected ErrInvalidDateTime, got %v", err)
	}
}

func TestPostgresListByDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows(apptCols)
	rows = apptRow(rows, "a1", "2024-01-15", "09:00", 30)
	rows = apptRow(rows, "a2", "2024-01-15", "10:00", 45)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE (.+) status != 'cancelled'").
		WithArgs("practice-1", "2024-01-15").
		WillReturnRows(rows)

	repo := NewPostgresRepository(mock)
	appts, err := repo.ListByDate(context.Background(), "practice-1", "2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appts))
	}
	if appts[0].Time != "09:00" || appts[1].DurationMinutes != 45 {
		t.Errorf("unexpected rows %+v", appts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs("practice-1", "missing").
		WillReturnRows(pgxmock.NewRows(apptCols))

	repo := NewPostgresRepository(mock)
	if _, err := repo.GetByID(context.Background(), "practice-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows(apptCols)
	rows = apptRow(rows, "a1", "2024-01-15", "09:00", 30)
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs("practice-1", "a1").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE appointments").
		WithArgs("2024-01-15", "11:00", 30, "Kontrolle", StatusScheduled, "", pgxmock.AnyArg(), "practice-1", "a1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPostgresRepository(mock)
	appt, err := repo.Update(context.Background(), "practice-1", "a1", &UpdateAppointmentRequest{
		Date: "2024-01-15",
		Time: "11:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Time != "11:00" {
		t.Errorf("time = %s, want 11:00", appt.Time)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdate_RowVanished(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows(apptCols)
	rows = apptRow(rows, "a1", "2024-01-15", "09:00", 30)
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs("practice-1", "a1").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "practice-1", "a1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepository(mock)
	if _, err := repo.Update(context.Background(), "practice-1", "a1", &UpdateAppointmentRequest{Status: StatusCancelled}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs("practice-1", "a1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewPostgresRepository(mock)
	if err := repo.Delete(context.Background(), "practice-1", "a1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
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

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs("practice-1", "missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewPostgresRepository(mock)
	if err := repo.Delete(context.Background(), "practice-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresListByPractice_Filters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows(apptCols)
	rows = apptRow(rows, "a1", "2024-01-15", "09:00", 30)
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs("practice-1", "2024-01-15", StatusScheduled, 100, 0).
		WillReturnRows(rows)

	repo := NewPostgresRepository(mock)
	appts, err := repo.ListByPractice(context.Background(), "practice-1", ListFilter{
		Date:   "2024-01-15",
		Status: StatusScheduled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appts) != 1 {
		t.Errorf("expected 1 appointment, got %d", len(appts))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
