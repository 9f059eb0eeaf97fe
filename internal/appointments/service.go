package appointments

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/praxisflow/praxisflow/internal/notify"
	"github.com/praxisflow/praxisflow/internal/observability/metrics"
	"github.com/praxisflow/praxisflow/internal/schedule"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

var appointmentsTracer = otel.Tracer("praxisflow.internal.appointments")

// Service books appointments and answers conflict/availability queries by
// loading the practice's day snapshot and running the schedule engine over
// it. Conflict results are advisory: a booking proceeds even when it
// overlaps existing appointments.
type Service struct {
	repo    Repository
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
	mailer  notify.EmailSender

	// Practice opening hours for free-slot queries.
	openTime    string
	closeTime   string
	slotMinutes int

	// Duration applied to bookings that do not specify one.
	defaultMinutes int
}

// ServiceConfig configures the appointments service.
type ServiceConfig struct {
	Repo        Repository
	Logger      *logging.Logger
	Metrics     *metrics.SchedulingMetrics
	Mailer      notify.EmailSender
	OpenTime    string
	CloseTime   string
	SlotMinutes int

	// DefaultMinutes is the booking duration used when a request omits
	// one. Defaults to the engine's standard slot length.
	DefaultMinutes int
}

// NewService constructs an appointments service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Repo == nil {
		panic("appointments: repository required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.OpenTime == "" {
		cfg.OpenTime = "08:00"
	}
	if cfg.CloseTime == "" {
		cfg.CloseTime = "18:00"
	}
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = schedule.DefaultDurationMinutes
	}
	if cfg.DefaultMinutes <= 0 {
		cfg.DefaultMinutes = schedule.DefaultDurationMinutes
	}
	return &Service{
		repo:           cfg.Repo,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		mailer:         cfg.Mailer,
		openTime:       cfg.OpenTime,
		closeTime:      cfg.CloseTime,
		slotMinutes:    cfg.SlotMinutes,
		defaultMinutes: cfg.DefaultMinutes,
	}
}

// Book creates an appointment and returns it together with the advisory
// conflict info computed against the practice's same-day appointments.
func (s *Service) Book(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, schedule.ConflictInfo, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("praxisflow.practice_id", req.PracticeID),
		attribute.String("praxisflow.date", req.Date),
	)

	info := schedule.ConflictInfo{ConflictingAppointments: []schedule.Appointment{}}
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, info, err
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = s.defaultMinutes
	}

	existing, err := s.repo.ListByDate(ctx, req.PracticeID, req.Date)
	if err != nil {
		span.RecordError(err)
		return nil, info, err
	}
	candidate := schedule.Appointment{
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
	}
	info = schedule.CheckConflicts(candidate, ScheduleViews(existing))
	s.metrics.ObserveConflictCheck(info.HasConflict)

	appt, err := s.repo.Create(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, info, err
	}
	s.metrics.ObserveBooking(appt.Source, info.HasConflict)
	s.logger.Info("appointment booked",
		"practice_id", appt.PracticeID,
		"appointment_id", appt.ID,
		"date", appt.Date,
		"time", appt.Time,
		"source", appt.Source,
		"conflicted", info.HasConflict,
	)

	s.sendConfirmation(ctx, appt)
	return appt, info, nil
}

// Reschedule updates an appointment and recomputes the advisory conflict
// info for its (possibly new) date, excluding the appointment itself.
func (s *Service) Reschedule(ctx context.Context, practiceID, id string, req *UpdateAppointmentRequest) (*Appointment, schedule.ConflictInfo, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.reschedule")
	defer span.End()
	span.SetAttributes(attribute.String("praxisflow.appointment_id", id))

	info := schedule.ConflictInfo{ConflictingAppointments: []schedule.Appointment{}}
	appt, err := s.repo.Update(ctx, practiceID, id, req)
	if err != nil {
		span.RecordError(err)
		return nil, info, err
	}

	existing, err := s.repo.ListByDate(ctx, practiceID, appt.Date)
	if err != nil {
		span.RecordError(err)
		return appt, info, err
	}
	candidate := appt.ScheduleView()
	info = schedule.CheckConflicts(candidate, ScheduleViews(existing))
	s.metrics.ObserveConflictCheck(info.HasConflict)

	s.logger.Info("appointment rescheduled",
		"practice_id", practiceID,
		"appointment_id", id,
		"date", appt.Date,
		"time", appt.Time,
		"conflicted", info.HasConflict,
	)
	return appt, info, nil
}

// CheckConflicts runs the conflict engine for a candidate against the
// practice's appointments on the candidate's date. A candidate without a
// date yields an empty result without touching the repository.
func (s *Service) CheckConflicts(ctx context.Context, practiceID string, candidate schedule.Appointment) (schedule.ConflictInfo, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.check_conflicts")
	defer span.End()

	if candidate.Date == "" || candidate.Time == "" {
		return schedule.ConflictInfo{ConflictingAppointments: []schedule.Appointment{}}, nil
	}
	existing, err := s.repo.ListByDate(ctx, practiceID, candidate.Date)
	if err != nil {
		span.RecordError(err)
		return schedule.ConflictInfo{ConflictingAppointments: []schedule.Appointment{}}, err
	}
	info := schedule.CheckConflicts(candidate, ScheduleViews(existing))
	s.metrics.ObserveConflictCheck(info.HasConflict)
	return info, nil
}

// DaySummary clusters a practice day's overlapping appointments.
func (s *Service) DaySummary(ctx context.Context, practiceID, date string) ([]schedule.ConflictCluster, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.day_summary")
	defer span.End()

	started := time.Now()
	existing, err := s.repo.ListByDate(ctx, practiceID, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	clusters := schedule.SummarizeDayConflicts(date, ScheduleViews(existing))
	s.metrics.ObserveDaySummaryLatency(time.Since(started).Seconds())
	return clusters, nil
}

// SlotOccupancy lists the appointments intersecting a one-hour calendar
// slot on the given date.
func (s *Service) SlotOccupancy(ctx context.Context, practiceID, date, hourSlot string) ([]schedule.Appointment, error) {
	existing, err := s.repo.ListByDate(ctx, practiceID, date)
	if err != nil {
		return nil, err
	}
	return schedule.SlotConflicts(date, hourSlot, ScheduleViews(existing)), nil
}

// FreeSlots returns the practice's free slot start times on the given date
// within its opening hours.
func (s *Service) FreeSlots(ctx context.Context, practiceID, date string) ([]string, error) {
	existing, err := s.repo.ListByDate(ctx, practiceID, date)
	if err != nil {
		return nil, err
	}
	return schedule.FreeSlots(date, s.openTime, s.closeTime, s.slotMinutes, ScheduleViews(existing)), nil
}

// Cancel marks an appointment cancelled. The row is kept for reporting;
// GDPR erasure deletes it for good.
func (s *Service) Cancel(ctx context.Context, practiceID, id string) (*Appointment, error) {
	appt, err := s.repo.Update(ctx, practiceID, id, &UpdateAppointmentRequest{Status: StatusCancelled})
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment cancelled", "practice_id", practiceID, "appointment_id", id)
	return appt, nil
}

func (s *Service) sendConfirmation(ctx context.Context, appt *Appointment) {
	if s.mailer == nil || appt.PatientEmail == "" {
		return
	}
	name := appt.PatientFirstName + " " + appt.PatientLastName
	msg := notify.AppointmentConfirmation(name, "", appt.Date, appt.Time, appt.Service)
	msg.To = appt.PatientEmail
	if err := s.mailer.Send(ctx, msg); err != nil {
		// Confirmation mail failure never fails the booking.
		s.logger.Warn("confirmation email failed", "appointment_id", appt.ID, "error", err)
	}
}
