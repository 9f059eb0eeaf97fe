package schedule

import (
	"reflect"
	"testing"
)

func appt(id, date, timeStr string, minutes int, first, last string) Appointment {
	a := Appointment{ID: id, Date: date, Time: timeStr, DurationMinutes: minutes}
	if first != "" || last != "" {
		a.Patient = &Patient{FirstName: first, LastName: last}
	}
	return a
}

func TestCheckConflicts_BoundaryNonConflict(t *testing.T) {
	// A ends 10:00, B starts 10:00 — not a conflict.
	existing := []Appointment{appt("a", "2024-01-15", "09:30", 30, "Anna", "Becker")}
	candidate := Appointment{Date: "2024-01-15", Time: "10:00", DurationMinutes: 30}

	info := CheckConflicts(candidate, existing)
	if info.HasConflict {
		t.Error("back-to-back appointments must not conflict")
	}
	if len(info.ConflictingAppointments) != 0 {
		t.Errorf("expected no conflicting appointments, got %d", len(info.ConflictingAppointments))
	}
	if info.Message != "" {
		t.Errorf("expected no message, got %q", info.Message)
	}
}

func TestCheckConflicts_ExactOverlap(t *testing.T) {
	existing := []Appointment{appt("a", "2024-01-15", "10:00", 60, "Anna", "Becker")}
	candidate := Appointment{Date: "2024-01-15", Time: "10:30", DurationMinutes: 30}

	info := CheckConflicts(candidate, existing)
	if !info.HasConflict {
		t.Fatal("expected conflict")
	}
	if len(info.ConflictingAppointments) != 1 || info.ConflictingAppointments[0].ID != "a" {
		t.Errorf("expected conflict with appointment a, got %+v", info.ConflictingAppointments)
	}
	want := "Konflikt mit Termin von Anna Becker um 10:00 Uhr"
	if info.Message != want {
		t.Errorf("message = %q, want %q", info.Message, want)
	}
}

func TestCheckConflicts_SelfExclusionWhenEditing(t *testing.T) {
	existing := []Appointment{appt("x", "2024-01-15", "10:00", 30, "Anna", "Becker")}
	candidate := appt("x", "2024-01-15", "10:00", 30, "Anna", "Becker")

	info := CheckConflicts(candidate, existing)
	if info.HasConflict {
		t.Error("an appointment must never conflict with itself while editing")
	}
}

func TestCheckConflicts_CrossDateIsolation(t *testing.T) {
	existing := []Appointment{appt("a", "2024-01-15", "10:00", 60, "Anna", "Becker")}
	candidate := Appointment{Date: "2024-01-16", Time: "10:00", DurationMinutes: 60}

	info := CheckConflicts(candidate, existing)
	if info.HasConflict {
		t.Error("appointments on different dates must not conflict")
	}
}

func TestCheckConflicts_DefaultDuration(t *testing.T) {
	// Candidate at 09:45 with no duration (treated as 30 min) overlaps an
	// appointment spanning 09:00–10:00.
	existing := []Appointment{appt("a", "2024-01-15", "09:00", 60, "Anna", "Becker")}
	candidate := Appointment{Date: "2024-01-15", Time: "09:45"}

	info := CheckConflicts(candidate, existing)
	if !info.HasConflict {
		t.Error("expected conflict with default duration candidate")
	}
}

func TestCheckConflicts_IncompleteCandidate(t *testing.T) {
	existing := []Appointment{appt("a", "2024-01-15", "10:00", 30, "Anna", "Becker")}

	tests := []Appointment{
		{Date: "", Time: "10:00"},
		{Date: "2024-01-15", Time: ""},
		{},
	}
	for _, candidate := range tests {
		info := CheckConflicts(candidate, existing)
		if info.HasConflict {
			t.Errorf("incomplete candidate %+v must not conflict", candidate)
		}
		if info.ConflictingAppointments == nil {
			t.Error("conflicting appointments should be an empty slice, not nil")
		}
	}
}

func TestCheckConflicts_MalformedCandidateTime(t *testing.T) {
	existing := []Appointment{appt("a", "2024-01-15", "10:00", 30, "Anna", "Becker")}
	candidate := Appointment{Date: "2024-01-15", Time: "25:99"}

	info := CheckConflicts(candidate, existing)
	if info.HasConflict {
		t.Error("unparseable candidate must yield no conflict")
	}
}

func TestCheckConflicts_SkipsMalformedExisting(t *testing.T) {
	existing := []Appointment{
		appt("bad", "2024-01-15", "whenever", 30, "", ""),
		appt("a", "2024-01-15", "10:00", 30, "Anna", "Becker"),
	}
	candidate := Appointment{Date: "2024-01-15", Time: "10:15"}

	info := CheckConflicts(candidate, existing)
	if !info.HasConflict {
		t.Fatal("expected conflict with the valid appointment")
	}
	if len(info.ConflictingAppointments) != 1 || info.ConflictingAppointments[0].ID != "a" {
		t.Errorf("malformed appointment should be skipped, got %+v", info.ConflictingAppointments)
	}
}

func TestCheckConflicts_MultipleConflictsMessage(t *testing.T) {
	existing := []Appointment{
		appt("a", "2024-01-15", "10:00", 60, "Anna", "Becker"),
		appt("b", "2024-01-15", "10:15", 60, "Jonas", "Vogel"),
	}
	candidate := Appointment{Date: "2024-01-15", Time: "10:30", DurationMinutes: 30}

	info := CheckConflicts(candidate, existing)
	if !info.HasConflict {
		t.Fatal("expected conflict")
	}
	if len(info.ConflictingAppointments) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(info.ConflictingAppointments))
	}
	want := "Konflikt mit 2 anderen Terminen zur gleichen Zeit"
	if info.Message != want {
		t.Errorf("message = %q, want %q", info.Message, want)
	}
}

func TestCheckConflicts_MissingPatientName(t *testing.T) {
	existing := []Appointment{appt("a", "2024-01-15", "10:00", 60, "", "")}
	candidate := Appointment{Date: "2024-01-15", Time: "10:30"}

	info := CheckConflicts(candidate, existing)
	if !info.HasConflict {
		t.Fatal("expected conflict")
	}
	want := "Konflikt mit Termin von   um 10:00 Uhr"
	if info.Message != want {
		t.Errorf("message = %q, want %q", info.Message, want)
	}
}

func TestCheckConflicts_EmptyList(t *testing.T) {
	candidate := Appointment{Date: "2024-01-15", Time: "10:00"}
	info := CheckConflicts(candidate, nil)
	if info.HasConflict {
		t.Error("empty appointment list must never conflict")
	}
}

func TestCheckConflicts_Idempotent(t *testing.T) {
	existing := []Appointment{
		appt("a", "2024-01-15", "10:00", 60, "Anna", "Becker"),
		appt("b", "2024-01-15", "11:30", 30, "Jonas", "Vogel"),
	}
	candidate := Appointment{Date: "2024-01-15", Time: "10:30", DurationMinutes: 30}

	first := CheckConflicts(candidate, existing)
	second := CheckConflicts(candidate, existing)
	if !reflect.DeepEqual(first, second) {
		t.Error("CheckConflicts is not idempotent")
	}
}

func TestCheckConflicts_NoSelfSkipWithoutID(t *testing.T) {
	// A new appointment (no ID) must still conflict with an existing
	// appointment that also has no ID set.
	existing := []Appointment{{Date: "2024-01-15", Time: "10:00", DurationMinutes: 30}}
	candidate := Appointment{Date: "2024-01-15", Time: "10:15", DurationMinutes: 30}

	info := CheckConflicts(candidate, existing)
	if !info.HasConflict {
		t.Error("skip-self must only apply when the candidate carries an ID")
	}
}
