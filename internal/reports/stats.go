// Package reports aggregates per-practice dashboard metrics from the
// relational store.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stats are the per-practice dashboard numbers.
type Stats struct {
	PracticeID          string `json:"practice_id"`
	AppointmentsBooked  int64  `json:"appointments_booked"`
	AppointmentsVoice   int64  `json:"appointments_voice"`
	AppointmentsCancels int64  `json:"appointments_cancelled"`
	ActivePatients      int64  `json:"active_patients"`
	GDPRRequestsOpen    int64  `json:"gdpr_requests_open"`
	PeriodStart         string `json:"period_start"`
	PeriodEnd           string `json:"period_end"`
}

// statsDB defines the database interface needed by StatsRepository
type statsDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository queries practice metrics from the database.
type StatsRepository struct {
	db statsDB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	if pool == nil {
		panic("reports: pgx pool required for stats")
	}
	return &StatsRepository{db: pool}
}

// NewStatsRepositoryWithDB allows injecting a mock database for testing.
func NewStatsRepositoryWithDB(db statsDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats retrieves aggregated metrics for a practice. Optional start/end
// times narrow the period; nil means all-time.
func (r *StatsRepository) GetStats(ctx context.Context, practiceID string, start, end *time.Time) (*Stats, error) {
	stats := &Stats{PracticeID: practiceID}

	var timeFilter string
	args := []any{practiceID}
	if start != nil && end != nil {
		timeFilter = " AND created_at >= $2 AND created_at < $3"
		args = append(args, *start, *end)
		stats.PeriodStart = start.Format(time.RFC3339)
		stats.PeriodEnd = end.Format(time.RFC3339)
	} else {
		stats.PeriodStart = "all-time"
		stats.PeriodEnd = "now"
	}

	bookedQuery := `SELECT COUNT(*) FROM appointments WHERE practice_id = $1` + timeFilter
	if err := r.db.QueryRow(ctx, bookedQuery, args...).Scan(&stats.AppointmentsBooked); err != nil {
		return nil, fmt.Errorf("reports: count appointments: %w", err)
	}

	voiceQuery := `SELECT COUNT(*) FROM appointments WHERE practice_id = $1 AND source = 'voice'` + timeFilter
	if err := r.db.QueryRow(ctx, voiceQuery, args...).Scan(&stats.AppointmentsVoice); err != nil {
		return nil, fmt.Errorf("reports: count voice appointments: %w", err)
	}

	cancelledQuery := `SELECT COUNT(*) FROM appointments WHERE practice_id = $1 AND status = 'cancelled'` + timeFilter
	if err := r.db.QueryRow(ctx, cancelledQuery, args...).Scan(&stats.AppointmentsCancels); err != nil {
		return nil, fmt.Errorf("reports: count cancellations: %w", err)
	}

	patientsQuery := `SELECT COUNT(*) FROM patients WHERE practice_id = $1` + timeFilter
	if err := r.db.QueryRow(ctx, patientsQuery, args...).Scan(&stats.ActivePatients); err != nil {
		return nil, fmt.Errorf("reports: count patients: %w", err)
	}

	openQuery := `SELECT COUNT(*) FROM gdpr_requests WHERE practice_id = $1 AND status = 'pending'` + timeFilter
	if err := r.db.QueryRow(ctx, openQuery, args...).Scan(&stats.GDPRRequestsOpen); err != nil {
		return nil, fmt.Errorf("reports: count open gdpr requests: %w", err)
	}

	return stats, nil
}
