package appointments

import (
	"strings"
	"time"

	"github.com/praxisflow/praxisflow/internal/schedule"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Appointment sources.
const (
	SourcePortal = "portal"
	SourceVoice  = "voice"
)

// Appointment is a booked appointment belonging to a practice.
type Appointment struct {
	ID               string    `json:"id"`
	PracticeID       string    `json:"practice_id"`
	PatientID        string    `json:"patient_id,omitempty"`
	Date             string    `json:"appointment_date"` // YYYY-MM-DD
	Time             string    `json:"appointment_time"` // HH:MM
	DurationMinutes  int       `json:"duration_minutes"`
	Service          string    `json:"service,omitempty"`
	Status           string    `json:"status"`
	Source           string    `json:"source"`
	PatientFirstName string    `json:"patient_first_name,omitempty"`
	PatientLastName  string    `json:"patient_last_name,omitempty"`
	PatientEmail     string    `json:"patient_email,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ScheduleView converts the appointment into the read-only shape the
// conflict engine consumes.
func (a *Appointment) ScheduleView() schedule.Appointment {
	view := schedule.Appointment{
		ID:              a.ID,
		Date:            a.Date,
		Time:            a.Time,
		DurationMinutes: a.DurationMinutes,
	}
	if a.PatientFirstName != "" || a.PatientLastName != "" {
		view.Patient = &schedule.Patient{
			FirstName: a.PatientFirstName,
			LastName:  a.PatientLastName,
		}
	}
	return view
}

// ScheduleViews converts a slice of appointments for the conflict engine.
func ScheduleViews(appts []*Appointment) []schedule.Appointment {
	views := make([]schedule.Appointment, 0, len(appts))
	for _, a := range appts {
		views = append(views, a.ScheduleView())
	}
	return views
}

// CreateAppointmentRequest is the request body for booking an appointment.
type CreateAppointmentRequest struct {
	PracticeID       string `json:"-"`
	PatientID        string `json:"patient_id"`
	Date             string `json:"appointment_date"`
	Time             string `json:"appointment_time"`
	DurationMinutes  int    `json:"duration_minutes"`
	Service          string `json:"service"`
	Source           string `json:"source"`
	PatientFirstName string `json:"patient_first_name"`
	PatientLastName  string `json:"patient_last_name"`
	PatientEmail     string `json:"patient_email"`
	Notes            string `json:"notes"`
}

// Validate validates the create appointment request
func (r *CreateAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.PracticeID) == "" {
		return ErrMissingPracticeID
	}
	if r.Date == "" || r.Time == "" {
		return ErrMissingDateTime
	}
	if _, err := schedule.ResolveInterval(schedule.Appointment{Date: r.Date, Time: r.Time}); err != nil {
		return ErrInvalidDateTime
	}
	return nil
}

// UpdateAppointmentRequest carries the editable fields of an appointment.
// Zero values leave the stored field unchanged, except Status which is
// validated when set.
type UpdateAppointmentRequest struct {
	Date            string `json:"appointment_date"`
	Time            string `json:"appointment_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Service         string `json:"service"`
	Status          string `json:"status"`
	Notes           string `json:"notes"`
}

// Validate validates the update request.
func (r *UpdateAppointmentRequest) Validate() error {
	if r.Date != "" || r.Time != "" {
		if r.Date == "" || r.Time == "" {
			return ErrMissingDateTime
		}
		if _, err := schedule.ResolveInterval(schedule.Appointment{Date: r.Date, Time: r.Time}); err != nil {
			return ErrInvalidDateTime
		}
	}
	switch r.Status {
	case "", StatusScheduled, StatusCancelled, StatusCompleted:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// ListFilter narrows appointment listings.
type ListFilter struct {
	Date   string
	Status string
	Limit  int
	Offset int
}
