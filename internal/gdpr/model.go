package gdpr

import (
	"time"

	"github.com/praxisflow/praxisflow/internal/appointments"
	"github.com/praxisflow/praxisflow/internal/patients"
)

// Request types.
const (
	TypeExport  = "export"
	TypeErasure = "erasure"
)

// Request statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Request is a patient's GDPR data request (Art. 15 export or Art. 17
// erasure) tracked through its lifecycle.
type Request struct {
	ID          string     `json:"id"`
	PracticeID  string     `json:"practice_id"`
	PatientID   string     `json:"patient_id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	ExportJSON  []byte     `json:"-"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CreateRequest is the request body for opening a GDPR request.
type CreateRequest struct {
	PracticeID string `json:"-"`
	PatientID  string `json:"patient_id"`
	Type       string `json:"type"`
}

// Validate validates the create request.
func (r *CreateRequest) Validate() error {
	if r.PracticeID == "" {
		return ErrMissingPracticeID
	}
	if r.PatientID == "" {
		return ErrMissingPatientID
	}
	if r.Type != TypeExport && r.Type != TypeErasure {
		return ErrInvalidType
	}
	return nil
}

// ExportDocument is the JSON document handed to the patient for an Art. 15
// export: their record plus every appointment linked to it.
type ExportDocument struct {
	GeneratedAt  time.Time                   `json:"generated_at"`
	Patient      *patients.Patient           `json:"patient"`
	Appointments []*appointments.Appointment `json:"appointments"`
}
