package schedule

import "fmt"

// CheckConflicts finds every existing appointment that overlaps the
// candidate. A candidate missing its date or time is treated as "no
// conflict" so forms can probe while still half filled in; the same applies
// when the date or time cannot be parsed. Existing appointments that fail to
// parse are skipped. When the candidate carries an ID (editing an existing
// appointment) the appointment with that ID is excluded from the check.
func CheckConflicts(candidate Appointment, existing []Appointment) ConflictInfo {
	none := ConflictInfo{ConflictingAppointments: []Appointment{}}

	if candidate.Date == "" || candidate.Time == "" {
		return none
	}
	candidateInterval, err := ResolveInterval(candidate)
	if err != nil {
		return none
	}

	var conflicting []Appointment
	for _, appt := range existing {
		if appt.Date != candidate.Date {
			continue
		}
		if candidate.ID != "" && appt.ID == candidate.ID {
			continue
		}
		interval, err := ResolveInterval(appt)
		if err != nil {
			continue
		}
		if Overlaps(candidateInterval, interval) {
			conflicting = append(conflicting, appt)
		}
	}

	if len(conflicting) == 0 {
		return none
	}
	return ConflictInfo{
		HasConflict:             true,
		ConflictingAppointments: conflicting,
		Message:                 conflictMessage(conflicting),
	}
}

func conflictMessage(conflicting []Appointment) string {
	if len(conflicting) == 1 {
		first, last := conflicting[0].patientName()
		return fmt.Sprintf("Konflikt mit Termin von %s %s um %s Uhr", first, last, conflicting[0].Time)
	}
	return fmt.Sprintf("Konflikt mit %d anderen Terminen zur gleichen Zeit", len(conflicting))
}
