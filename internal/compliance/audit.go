// Package compliance records immutable data-protection audit events.
// Every GDPR action on patient data leaves a row here; Art. 5(2) requires
// the practice to be able to demonstrate what happened to a record and
// when.
package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// AuditEventType represents the type of data-protection event.
type AuditEventType string

const (
	// EventDataRequestCreated is logged when a GDPR request is submitted.
	EventDataRequestCreated AuditEventType = "gdpr.request_created"
	// EventDataExportGenerated is logged when an export document is built.
	EventDataExportGenerated AuditEventType = "gdpr.export_generated"
	// EventDataExportDownloaded is logged when an export is downloaded.
	EventDataExportDownloaded AuditEventType = "gdpr.export_downloaded"
	// EventDataErasureExecuted is logged when patient data is purged.
	EventDataErasureExecuted AuditEventType = "gdpr.erasure_executed"
	// EventDataRequestFailed is logged when fulfilment fails.
	EventDataRequestFailed AuditEventType = "gdpr.request_failed"
)

// AuditEvent is an immutable audit record.
type AuditEvent struct {
	ID         string          `json:"id"`
	EventType  AuditEventType  `json:"event_type"`
	PracticeID string          `json:"practice_id"`
	PatientID  string          `json:"patient_id,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditDetails contains event-specific details.
type AuditDetails struct {
	RequestType        string `json:"request_type,omitempty"`
	AppointmentsPurged int64  `json:"appointments_purged,omitempty"`
	PatientDeleted     bool   `json:"patient_deleted,omitempty"`
	ExportBytes        int    `json:"export_bytes,omitempty"`
	FailureReason      string `json:"failure_reason,omitempty"`
}

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AuditService writes and queries the audit trail. A nil *AuditService is
// valid and drops all writes, so callers without a database need no guard.
type AuditService struct {
	db DB
}

// NewAuditService creates a new audit service.
func NewAuditService(db DB) *AuditService {
	if db == nil {
		panic("compliance: db required")
	}
	return &AuditService{db: db}
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if s == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_events (
			id, event_type, practice_id, patient_id, request_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		event.ID,
		event.EventType,
		event.PracticeID,
		event.PatientID,
		event.RequestID,
		event.Details,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: log audit event: %w", err)
	}
	return nil
}

// LogRequestCreated records the submission of a GDPR request.
func (s *AuditService) LogRequestCreated(ctx context.Context, practiceID, patientID, requestID, requestType string) error {
	details, _ := json.Marshal(AuditDetails{RequestType: requestType})
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventDataRequestCreated,
		PracticeID: practiceID,
		PatientID:  patientID,
		RequestID:  requestID,
		Details:    details,
	})
}

// LogExportGenerated records a completed data export.
func (s *AuditService) LogExportGenerated(ctx context.Context, practiceID, patientID, requestID string, exportBytes int) error {
	details, _ := json.Marshal(AuditDetails{ExportBytes: exportBytes})
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventDataExportGenerated,
		PracticeID: practiceID,
		PatientID:  patientID,
		RequestID:  requestID,
		Details:    details,
	})
}

// LogExportDownloaded records that an export document left the system.
func (s *AuditService) LogExportDownloaded(ctx context.Context, practiceID, patientID, requestID string) error {
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventDataExportDownloaded,
		PracticeID: practiceID,
		PatientID:  patientID,
		RequestID:  requestID,
	})
}

// LogErasureExecuted records a completed erasure.
func (s *AuditService) LogErasureExecuted(ctx context.Context, practiceID, patientID, requestID string, appointmentsPurged int64, patientDeleted bool) error {
	details, _ := json.Marshal(AuditDetails{
		AppointmentsPurged: appointmentsPurged,
		PatientDeleted:     patientDeleted,
	})
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventDataErasureExecuted,
		PracticeID: practiceID,
		PatientID:  patientID,
		RequestID:  requestID,
		Details:    details,
	})
}

// LogRequestFailed records a fulfilment failure.
func (s *AuditService) LogRequestFailed(ctx context.Context, practiceID, patientID, requestID, reason string) error {
	details, _ := json.Marshal(AuditDetails{FailureReason: reason})
	return s.LogEvent(ctx, AuditEvent{
		EventType:  EventDataRequestFailed,
		PracticeID: practiceID,
		PatientID:  patientID,
		RequestID:  requestID,
		Details:    details,
	})
}

// AuditFilter specifies criteria for querying audit events.
type AuditFilter struct {
	PracticeID string
	PatientID  string
	EventType  AuditEventType
	StartTime  time.Time
	EndTime    time.Time
	Limit      int
	Offset     int
}

// QueryEvents retrieves audit events with filters, newest first.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	if s == nil {
		return nil, nil
	}

	query := `
		SELECT id, event_type, practice_id, patient_id, request_id, details, created_at
		FROM audit_events
		WHERE practice_id = $1
	`
	args := []any{filter.PracticeID}
	argIdx := 2

	if filter.PatientID != "" {
		query += fmt.Sprintf(" AND patient_id = $%d", argIdx)
		args = append(args, filter.PatientID)
		argIdx++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, filter.EventType)
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.PracticeID, &e.PatientID, &e.RequestID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("compliance: iterate audit events: %w", err)
	}
	return events, nil
}
