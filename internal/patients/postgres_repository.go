package patients

import (
	"context"
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

const patientColumns = `id, practice_id, first_name, last_name, email, phone,
	date_of_birth, insurance_number, notes, created_at, updated_at`

// PostgresRepository stores patients in Postgres.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a Postgres-backed repository.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new patient row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Patient{
		ID:              uuid.New().String(),
		PracticeID:      req.PracticeID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		DateOfBirth:     req.DateOfBirth,
		InsuranceNumber: req.InsuranceNumber,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO patients (`+patientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.PracticeID, p.FirstName, p.LastName, p.Email, p.Phone,
		p.DateOfBirth, p.InsuranceNumber, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("patients: create: %w", err)
	}
	return p, nil
}

// GetByID returns a patient scoped to the practice.
func (r *PostgresRepository) GetByID(ctx context.Context, practiceID, id string) (*Patient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE practice_id = $1 AND id = $2`, practiceID, id)
	if err != nil {
		return nil, fmt.Errorf("patients: get by id: %w", err)
	}
	defer rows.Close()
	list, err := scanPatients(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// Update applies the editable fields and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, practiceID, id string, req *UpdatePatientRequest) (*Patient, error) {
	current, err := r.GetByID(ctx, practiceID, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != "" {
		current.FirstName = req.FirstName
	}
	if req.LastName != "" {
		current.LastName = req.LastName
	}
	if req.Email != "" {
		current.Email = req.Email
	}
	if req.Phone != "" {
		current.Phone = req.Phone
	}
	if req.DateOfBirth != "" {
		current.DateOfBirth = req.DateOfBirth
	}
	if req.InsuranceNumber != "" {
		current.InsuranceNumber = req.InsuranceNumber
	}
	if req.Notes != "" {
		current.Notes = req.Notes
	}
	current.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx, `
		UPDATE patients
		SET first_name = $1, last_name = $2, email = $3, phone = $4,
			date_of_birth = $5, insurance_number = $6, notes = $7, updated_at = $8
		WHERE practice_id = $9 AND id = $10`,
		current.FirstName, current.LastName, current.Email, current.Phone,
		current.DateOfBirth, current.InsuranceNumber, current.Notes, current.UpdatedAt,
		practiceID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("patients: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return current, nil
}

// Delete removes the patient row for good. Used by GDPR erasure.
func (r *PostgresRepository) Delete(ctx context.Context, practiceID, id string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM patients WHERE practice_id = $1 AND id = $2`, practiceID, id)
	if err != nil {
		return fmt.Errorf("patients: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the practice's patients, optionally filtered by a search term
// against name and email.
func (r *PostgresRepository) List(ctx context.Context, practiceID string, filter ListFilter) ([]*Patient, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}

	query := `SELECT ` + patientColumns + ` FROM patients WHERE practice_id = $1`
	args := []any{practiceID}
	idx := 2
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", idx, idx, idx)
		args = append(args, "%"+filter.Search+"%")
		idx++
	}
	query += fmt.Sprintf(" ORDER BY last_name, first_name LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("patients: list: %w", err)
	}
	defer rows.Close()
	return scanPatients(rows)
}

func scanPatients(rows pgx.Rows) ([]*Patient, error) {
	var result []*Patient
	for rows.Next() {
		var p Patient
		err := rows.Scan(
			&p.ID, &p.PracticeID, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
			&p.DateOfBirth, &p.InsuranceNumber, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("patients: scan: %w", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: rows: %w", err)
	}
	return result, nil
}
