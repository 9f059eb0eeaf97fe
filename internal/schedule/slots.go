package schedule

import "time"

// SlotConflicts returns every appointment on the given date whose interval
// intersects the one-hour window starting at hourSlot ("HH:00"). Calendar
// grids use this to mark occupied cells. An unparseable date or slot yields
// an empty result.
func SlotConflicts(date, hourSlot string, appts []Appointment) []Appointment {
	window, err := ResolveInterval(Appointment{Date: date, Time: hourSlot, DurationMinutes: 60})
	if err != nil {
		return nil
	}

	var hits []Appointment
	for _, appt := range appts {
		if appt.Date != date {
			continue
		}
		interval, err := ResolveInterval(appt)
		if err != nil {
			continue
		}
		if Overlaps(window, interval) {
			hits = append(hits, appt)
		}
	}
	return hits
}

// FreeSlots returns the start times ("HH:MM") of every slot of slotMinutes
// between open and close on the given date that no appointment intersects.
// The voice agent offers these to callers. Slots are generated until their
// start reaches close; a slot ending exactly when an appointment starts is
// still free.
func FreeSlots(date, open, close string, slotMinutes int, appts []Appointment) []string {
	if slotMinutes <= 0 {
		slotMinutes = DefaultDurationMinutes
	}
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return nil
	}
	openHour, openMinute, err := ParseClock(open)
	if err != nil {
		return nil
	}
	closeHour, closeMinute, err := ParseClock(close)
	if err != nil {
		return nil
	}
	openAt := day.Add(time.Duration(openHour)*time.Hour + time.Duration(openMinute)*time.Minute)
	closeAt := day.Add(time.Duration(closeHour)*time.Hour + time.Duration(closeMinute)*time.Minute)

	var booked []Interval
	for _, appt := range appts {
		if appt.Date != date {
			continue
		}
		interval, err := ResolveInterval(appt)
		if err != nil {
			continue
		}
		booked = append(booked, interval)
	}

	step := time.Duration(slotMinutes) * time.Minute
	var free []string
	for start := openAt; start.Before(closeAt); start = start.Add(step) {
		slot := Interval{Start: start, End: start.Add(step)}
		taken := false
		for _, b := range booked {
			if Overlaps(slot, b) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, start.Format("15:04"))
		}
	}
	return free
}
