package schedule

// SummarizeDayConflicts clusters the given date's appointments into groups
// of mutually overlapping bookings. The clustering is greedy and single-seed:
// each cluster contains the seed appointment plus every not-yet-clustered
// appointment that overlaps the seed directly. A chain A-B-C where C only
// overlaps B lands in whatever cluster its direct overlap assigns it, which
// can differ between input orderings. Clusters with a single member are not
// reported.
//
// TimeRange is the earliest and latest appointment_time string among the
// cluster's members; lexicographic comparison is correct for zero-padded
// 24-hour times.
func SummarizeDayConflicts(date string, appts []Appointment) []ConflictCluster {
	type resolved struct {
		appt     Appointment
		interval Interval
	}

	var day []resolved
	for _, appt := range appts {
		if appt.Date != date {
			continue
		}
		interval, err := ResolveInterval(appt)
		if err != nil {
			continue
		}
		day = append(day, resolved{appt: appt, interval: interval})
	}

	processed := make([]bool, len(day))
	var clusters []ConflictCluster

	for i := range day {
		if processed[i] {
			continue
		}
		group := []int{i}
		for j := range day {
			if j == i || processed[j] {
				continue
			}
			if Overlaps(day[i].interval, day[j].interval) {
				group = append(group, j)
			}
		}
		for _, idx := range group {
			processed[idx] = true
		}
		if len(group) < 2 {
			continue
		}

		members := make([]Appointment, 0, len(group))
		earliest, latest := day[group[0]].appt.Time, day[group[0]].appt.Time
		for _, idx := range group {
			members = append(members, day[idx].appt)
			if day[idx].appt.Time < earliest {
				earliest = day[idx].appt.Time
			}
			if day[idx].appt.Time > latest {
				latest = day[idx].appt.Time
			}
		}
		clusters = append(clusters, ConflictCluster{
			Appointments: members,
			TimeRange:    earliest + " - " + latest,
		})
	}
	return clusters
}
