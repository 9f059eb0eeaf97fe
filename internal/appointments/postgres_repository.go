package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const apptColumns = `id, practice_id, patient_id, appointment_date, appointment_time, duration_minutes,
	service, status, source, patient_first_name, patient_last_name, patient_email, notes, created_at, updated_at`

// PostgresRepository stores appointments in Postgres.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a Postgres-backed repository.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	source := req.Source
	if source == "" {
		source = SourcePortal
	}
	appt := &Appointment{
		ID:               uuid.New().String(),
		PracticeID:       req.PracticeID,
		PatientID:        req.PatientID,
		Date:             req.Date,
		Time:             req.Time,
		DurationMinutes:  req.DurationMinutes,
		Service:          req.Service,
		Status:           StatusScheduled,
		Source:           source,
		PatientFirstName: req.PatientFirstName,
		PatientLastName:  req.PatientLastName,
		PatientEmail:     req.PatientEmail,
		Notes:            req.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO appointments (`+apptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		appt.ID, appt.PracticeID, nullable(appt.PatientID), appt.Date, appt.Time, appt.DurationMinutes,
		appt.Service, appt.Status, appt.Source, appt.PatientFirstName, appt.PatientLastName, appt.PatientEmail,
		appt.Notes, appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: create: %w", err)
	}
	return appt, nil
}

// GetByID returns an appointment scoped to the practice.
func (r *PostgresRepository) GetByID(ctx context.Context, practiceID, id string) (*Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE practice_id = $1 AND id = $2`, practiceID, id)
	if err != nil {
		return nil, fmt.Errorf("appointments: get by id: %w", err)
	}
	defer rows.Close()
	appts, err := scanAppointments(rows)
	if err != nil {
		return nil, err
	}
	if len(appts) == 0 {
		return nil, ErrNotFound
	}
	return appts[0], nil
}

// Update applies the editable fields and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, practiceID, id string, req *UpdateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := r.GetByID(ctx, practiceID, id)
	if err != nil {
		return nil, err
	}
	if req.Date != "" {
		current.Date = req.Date
		current.Time = req.Time
	}
	if req.DurationMinutes > 0 {
		current.DurationMinutes = req.DurationMinutes
	}
	if req.Service != "" {
		current.Service = req.Service
	}
	if req.Status != "" {
		current.Status = req.Status
	}
	if req.Notes != "" {
		current.Notes = req.Notes
	}
	current.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET appointment_date = $1, appointment_time = $2, duration_minutes = $3,
			service = $4, status = $5, notes = $6, updated_at = $7
		WHERE practice_id = $8 AND id = $9`,
		current.Date, current.Time, current.DurationMinutes,
		current.Service, current.Status, current.Notes, current.UpdatedAt,
		practiceID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return current, nil
}

// Delete removes an appointment row.
func (r *PostgresRepository) Delete(ctx context.Context, practiceID, id string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM appointments WHERE practice_id = $1 AND id = $2`, practiceID, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByPractice lists a practice's appointments with optional filters.
func (r *PostgresRepository) ListByPractice(ctx context.Context, practiceID string, filter ListFilter) ([]*Appointment, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}

	query := `SELECT ` + apptColumns + ` FROM appointments WHERE practice_id = $1`
	args := []any{practiceID}
	idx := 2
	if filter.Date != "" {
		query += fmt.Sprintf(" AND appointment_date = $%d", idx)
		args = append(args, filter.Date)
		idx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, filter.Status)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY appointment_date, appointment_time LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by practice: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListByDate returns the practice's appointments on one calendar date,
// ordered by time of day. This is the snapshot the conflict engine operates
// on; cancelled appointments hold no slot and are excluded.
func (r *PostgresRepository) ListByDate(ctx context.Context, practiceID, date string) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE practice_id = $1 AND appointment_date = $2 AND status != 'cancelled'
		ORDER BY appointment_time`, practiceID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by date: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListByPatient lists all appointments linked to one patient.
func (r *PostgresRepository) ListByPatient(ctx context.Context, practiceID, patientID string) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE practice_id = $1 AND patient_id = $2
		ORDER BY appointment_date, appointment_time`, practiceID, patientID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by patient: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// DeleteByPatient removes all appointments linked to one patient and
// returns how many rows went away. Used by GDPR erasure.
func (r *PostgresRepository) DeleteByPatient(ctx context.Context, practiceID, patientID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM appointments WHERE practice_id = $1 AND patient_id = $2`, practiceID, patientID)
	if err != nil {
		return 0, fmt.Errorf("appointments: delete by patient: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var result []*Appointment
	for rows.Next() {
		var a Appointment
		var patientID *string
		err := rows.Scan(
			&a.ID, &a.PracticeID, &patientID, &a.Date, &a.Time, &a.DurationMinutes,
			&a.Service, &a.Status, &a.Source, &a.PatientFirstName, &a.PatientLastName, &a.PatientEmail,
			&a.Notes, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		if patientID != nil {
			a.PatientID = *patientID
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("appointments: rows: %w", err)
	}
	return result, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
