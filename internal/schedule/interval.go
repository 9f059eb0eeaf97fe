package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseClock parses a "HH:MM" (or "H:MM") 24-hour time of day.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("schedule: invalid time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("schedule: invalid time %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("schedule: invalid time %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("schedule: time %q out of range", s)
	}
	return hour, minute, nil
}

// ResolveInterval converts an appointment's date, time and duration into a
// concrete [start, end) span. The end may extend past midnight arithmetically
// but is still only ever compared against same-date appointments.
func ResolveInterval(a Appointment) (Interval, error) {
	day, err := time.ParseInLocation(dateLayout, a.Date, time.UTC)
	if err != nil {
		return Interval{}, fmt.Errorf("schedule: invalid date %q", a.Date)
	}
	hour, minute, err := ParseClock(a.Time)
	if err != nil {
		return Interval{}, err
	}
	start := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return Interval{Start: start, End: start.Add(a.duration())}, nil
}

// Overlaps reports whether two half-open intervals [s,e) intersect.
// Touching endpoints do not count: back-to-back appointments are not a
// conflict.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
