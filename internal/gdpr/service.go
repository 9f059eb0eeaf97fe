package gdpr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/praxisflow/praxisflow/internal/appointments"
	"github.com/praxisflow/praxisflow/internal/compliance"
	"github.com/praxisflow/praxisflow/internal/notify"
	"github.com/praxisflow/praxisflow/internal/patients"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

var gdprTracer = otel.Tracer("praxisflow.internal.gdpr")

// Service fulfils GDPR data requests. Export gathers the patient record and
// every linked appointment into one JSON document; erasure purges both for
// good. Requests are fulfilled synchronously and their outcome recorded on
// the stored request.
type Service struct {
	store        Store
	patients     patients.Repository
	appointments appointments.Repository
	mailer       notify.EmailSender
	audit        *compliance.AuditService
	logger       *logging.Logger
	practiceName string
}

// ServiceConfig configures the GDPR service.
type ServiceConfig struct {
	Store        Store
	Patients     patients.Repository
	Appointments appointments.Repository
	Mailer       notify.EmailSender
	// Audit may be nil when no database is configured; writes are then
	// dropped.
	Audit        *compliance.AuditService
	Logger       *logging.Logger
	PracticeName string
}

// NewService constructs a GDPR service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Store == nil {
		panic("gdpr: store required")
	}
	if cfg.Patients == nil || cfg.Appointments == nil {
		panic("gdpr: patient and appointment repositories required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.PracticeName == "" {
		cfg.PracticeName = "Ihre Praxis"
	}
	return &Service{
		store:        cfg.Store,
		patients:     cfg.Patients,
		appointments: cfg.Appointments,
		mailer:       cfg.Mailer,
		audit:        cfg.Audit,
		logger:       cfg.Logger,
		practiceName: cfg.PracticeName,
	}
}

// Submit opens a request and fulfils it immediately. The returned request
// carries the final status; a failed fulfilment is recorded on the request
// rather than returned as an error.
func (s *Service) Submit(ctx context.Context, req *CreateRequest) (*Request, error) {
	ctx, span := gdprTracer.Start(ctx, "gdpr.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("praxisflow.practice_id", req.PracticeID),
		attribute.String("praxisflow.request_type", req.Type),
	)

	r, err := s.store.Create(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.auditLog(r.ID, s.audit.LogRequestCreated(ctx, r.PracticeID, r.PatientID, r.ID, r.Type))

	var fulfilErr error
	switch r.Type {
	case TypeExport:
		fulfilErr = s.fulfilExport(ctx, r)
	case TypeErasure:
		fulfilErr = s.fulfilErasure(ctx, r)
	}
	if fulfilErr != nil {
		span.RecordError(fulfilErr)
		s.logger.Error("gdpr request failed",
			"practice_id", r.PracticeID, "request_id", r.ID, "type", r.Type, "error", fulfilErr)
		if err := s.store.MarkFailed(ctx, r.PracticeID, r.ID, fulfilErr.Error()); err != nil {
			return nil, err
		}
		s.auditLog(r.ID, s.audit.LogRequestFailed(ctx, r.PracticeID, r.PatientID, r.ID, fulfilErr.Error()))
	}
	return s.store.GetByID(ctx, r.PracticeID, r.ID)
}

// Get returns a request scoped to the practice.
func (s *Service) Get(ctx context.Context, practiceID, id string) (*Request, error) {
	return s.store.GetByID(ctx, practiceID, id)
}

// List lists a practice's requests.
func (s *Service) List(ctx context.Context, practiceID string) ([]*Request, error) {
	return s.store.ListByPractice(ctx, practiceID)
}

// Export returns the stored export document of a completed export request.
func (s *Service) Export(ctx context.Context, practiceID, id string) ([]byte, error) {
	r, err := s.store.GetByID(ctx, practiceID, id)
	if err != nil {
		return nil, err
	}
	if r.Type != TypeExport || r.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}
	s.auditLog(r.ID, s.audit.LogExportDownloaded(ctx, r.PracticeID, r.PatientID, r.ID))
	return r.ExportJSON, nil
}

func (s *Service) fulfilExport(ctx context.Context, r *Request) error {
	patient, err := s.patients.GetByID(ctx, r.PracticeID, r.PatientID)
	if err != nil {
		return err
	}
	appts, err := s.appointments.ListByPatient(ctx, r.PracticeID, r.PatientID)
	if err != nil {
		return err
	}
	if appts == nil {
		appts = []*appointments.Appointment{}
	}

	doc := ExportDocument{
		GeneratedAt:  time.Now().UTC(),
		Patient:      patient,
		Appointments: appts,
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("gdpr: marshal export: %w", err)
	}
	if err := s.store.MarkCompleted(ctx, r.PracticeID, r.ID, payload); err != nil {
		return err
	}
	s.auditLog(r.ID, s.audit.LogExportGenerated(ctx, r.PracticeID, r.PatientID, r.ID, len(payload)))
	s.logger.Info("gdpr export fulfilled",
		"practice_id", r.PracticeID, "request_id", r.ID, "appointments", len(appts))

	if s.mailer != nil && patient.Email != "" {
		msg := notify.GDPRExportReady(patient.FirstName+" "+patient.LastName, s.practiceName)
		msg.To = patient.Email
		if err := s.mailer.Send(ctx, msg); err != nil {
			// Notification failure never fails the export itself.
			s.logger.Warn("gdpr export mail failed", "request_id", r.ID, "error", err)
		}
	}
	return nil
}

func (s *Service) fulfilErasure(ctx context.Context, r *Request) error {
	deleted, err := s.appointments.DeleteByPatient(ctx, r.PracticeID, r.PatientID)
	if err != nil {
		return err
	}
	patientDeleted := true
	if err := s.patients.Delete(ctx, r.PracticeID, r.PatientID); err != nil {
		if errors.Is(err, patients.ErrNotFound) && deleted > 0 {
			// Appointments purged but the patient row was already gone;
			// the erasure still counts as done.
			patientDeleted = false
		} else {
			return err
		}
	}
	if err := s.store.MarkCompleted(ctx, r.PracticeID, r.ID, nil); err != nil {
		return err
	}
	s.auditLog(r.ID, s.audit.LogErasureExecuted(ctx, r.PracticeID, r.PatientID, r.ID, deleted, patientDeleted))
	s.logger.Info("gdpr erasure fulfilled",
		"practice_id", r.PracticeID, "request_id", r.ID, "appointments_deleted", deleted)
	return nil
}

// auditLog downgrades audit write failures to warnings; the audit trail
// must never block a fulfilment that already happened.
func (s *Service) auditLog(requestID string, err error) {
	if err != nil {
		s.logger.Warn("gdpr audit write failed", "request_id", requestID, "error", err)
	}
}
