package patients

import (
	"strings"
	"time"
)

// Patient is a patient record belonging to a practice. Contact details and
// insurance data are personal data under the GDPR; the gdpr package exports
// and erases them on request.
type Patient struct {
	ID              string    `json:"id"`
	PracticeID      string    `json:"practice_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	DateOfBirth     string    `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	InsuranceNumber string    `json:"insurance_number,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreatePatientRequest is the request body for registering a patient.
type CreatePatientRequest struct {
	PracticeID      string `json:"-"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	DateOfBirth     string `json:"date_of_birth"`
	InsuranceNumber string `json:"insurance_number"`
	Notes           string `json:"notes"`
}

// Validate validates the create patient request
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.PracticeID) == "" {
		return ErrMissingPracticeID
	}
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return ErrMissingName
	}
	if r.Email == "" && r.Phone == "" {
		return ErrMissingContact
	}
	return nil
}

// UpdatePatientRequest carries the editable fields. Zero values leave the
// stored field unchanged.
type UpdatePatientRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	DateOfBirth     string `json:"date_of_birth"`
	InsuranceNumber string `json:"insurance_number"`
	Notes           string `json:"notes"`
}

// ListFilter narrows patient listings.
type ListFilter struct {
	Search string // matches first name, last name, or email
	Limit  int
	Offset int
}
