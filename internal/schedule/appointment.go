// Package schedule implements conflict detection and availability lookups
// over a practice's appointment list. All functions are pure: they operate
// on the slice passed in, hold no state and perform no I/O, so they are safe
// to call from any number of handlers concurrently.
//
// Appointments are compared only within the same calendar date; an interval
// is never carried across midnight. Conflict results are advisory — nothing
// in this package blocks a booking.
package schedule

import "time"

// DefaultDurationMinutes is assumed when an appointment carries no duration.
// A zero-length interval could never overlap anything, including itself.
const DefaultDurationMinutes = 30

// Patient is the denormalized patient reference carried on an appointment.
// Only used for conflict message formatting.
type Patient struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Appointment is the read-only view of an appointment this package needs.
// The appointments package owns the full record; callers pass a snapshot of
// the practice's current appointments on every call.
type Appointment struct {
	ID              string   `json:"id"`
	Date            string   `json:"appointment_date"` // YYYY-MM-DD
	Time            string   `json:"appointment_time"` // HH:MM, 24-hour
	DurationMinutes int      `json:"duration_minutes,omitempty"`
	Patient         *Patient `json:"patient,omitempty"`
}

// Interval is a concrete half-open time span [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ConflictInfo is the result of checking a candidate appointment against the
// existing list.
type ConflictInfo struct {
	HasConflict             bool          `json:"has_conflict"`
	ConflictingAppointments []Appointment `json:"conflicting_appointments"`
	Message                 string        `json:"message,omitempty"`
}

// ConflictCluster groups two or more same-day appointments that overlap the
// cluster's seed appointment.
type ConflictCluster struct {
	Appointments []Appointment `json:"appointments"`
	TimeRange    string        `json:"time_range"` // "HH:MM - HH:MM"
}

func (a Appointment) duration() time.Duration {
	minutes := a.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultDurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (a Appointment) patientName() (string, string) {
	if a.Patient == nil {
		return "", ""
	}
	return a.Patient.FirstName, a.Patient.LastName
}
