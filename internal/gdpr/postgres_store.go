package gdpr

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

const requestColumns = `id, practice_id, patient_id, request_type, status, export_json, error, created_at, completed_at`

// PostgresStore stores GDPR requests in Postgres.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create opens a new pending request.
func (s *PostgresStore) Create(ctx context.Context, req *CreateRequest) (*Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r := &Request{
		ID:         uuid.New().String(),
		PracticeID: req.PracticeID,
		PatientID:  req.PatientID,
		Type:       req.Type,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO gdpr_requests (id, practice_id, patient_id, request_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.PracticeID, r.PatientID, r.Type, r.Status, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("gdpr: create request: %w", err)
	}
	return r, nil
}

// GetByID returns a request scoped to the practice.
func (s *PostgresStore) GetByID(ctx context.Context, practiceID, id string) (*Request, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+requestColumns+`
		FROM gdpr_requests
		WHERE practice_id = $1 AND id = $2`, practiceID, id)
	if err != nil {
		return nil, fmt.Errorf("gdpr: get request: %w", err)
	}
	defer rows.Close()
	list, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// ListByPractice lists a practice's requests, newest first.
func (s *PostgresStore) ListByPractice(ctx context.Context, practiceID string) ([]*Request, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+requestColumns+`
		FROM gdpr_requests
		WHERE practice_id = $1
		ORDER BY created_at DESC`, practiceID)
	if err != nil {
		return nil, fmt.Errorf("gdpr: list requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

// MarkCompleted transitions a request to completed.
func (s *PostgresStore) MarkCompleted(ctx context.Context, practiceID, id string, exportJSON []byte) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE gdpr_requests
		SET status = $1, export_json = $2, completed_at = $3
		WHERE practice_id = $4 AND id = $5`,
		StatusCompleted, exportJSON, time.Now().UTC(), practiceID, id,
	)
	if err != nil {
		return fmt.Errorf("gdpr: mark completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed transitions a request to failed with a reason.
func (s *PostgresStore) MarkFailed(ctx context.Context, practiceID, id, reason string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE gdpr_requests
		SET status = $1, error = $2, completed_at = $3
		WHERE practice_id = $4 AND id = $5`,
		StatusFailed, reason, time.Now().UTC(), practiceID, id,
	)
	if err != nil {
		return fmt.Errorf("gdpr: mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRequests(rows pgx.Rows) ([]*Request, error) {
	var result []*Request
	for rows.Next() {
		var r Request
		var exportJSON []byte
		var errMsg *string
		err := rows.Scan(
			&r.ID, &r.PracticeID, &r.PatientID, &r.Type, &r.Status,
			&exportJSON, &errMsg, &r.CreatedAt, &r.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("gdpr: scan: %w", err)
		}
		r.ExportJSON = exportJSON
		if errMsg != nil {
			r.Error = *errMsg
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gdpr: rows: %w", err)
	}
	return result, nil
}
