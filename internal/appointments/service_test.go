package appointments

import (
	"context"
	"testing"

	"github.com/praxisflow/praxisflow/internal/schedule"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

func newTestService(t *testing.T) (*Service, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	svc := NewService(ServiceConfig{
		Repo:        repo,
		Logger:      logging.Default(),
		OpenTime:    "09:00",
		CloseTime:   "12:00",
		SlotMinutes: 30,
	})
	return svc, repo
}

func createReq(date, timeStr string, minutes int, first, last string) *CreateAppointmentRequest {
	return &CreateAppointmentRequest{
		PracticeID:       "practice-1",
		Date:             date,
		Time:             timeStr,
		DurationMinutes:  minutes,
		PatientFirstName: first,
		PatientLastName:  last,
	}
}

func TestBook_NoConflict(t *testing.T) {
	svc, _ := newTestService(t)

	appt, info, err := svc.Book(context.Background(), createReq("2024-01-15", "09:00", 30, "Anna", "Becker"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.ID == "" || appt.Status != StatusScheduled {
		t.Errorf("unexpected appointment %+v", appt)
	}
	if info.HasConflict {
		t.Error("first booking of the day must not conflict")
	}
}

func TestBook_ConflictIsAdvisoryOnly(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Book(ctx, createReq("2024-01-15", "10:00", 60, "Anna", "Becker")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	appt, info, err := svc.Book(ctx, createReq("2024-01-15", "10:30", 30, "Jonas", "Vogel"))
	if err != nil {
		t.Fatalf("conflicting booking must still succeed: %v", err)
	}
	if !info.HasConflict {
		t.Error("expected advisory conflict")
	}
	if info.Message != "Konflikt mit Termin von Anna Becker um 10:00 Uhr" {
		t.Errorf("unexpected message %q", info.Message)
	}

	// Both rows were created.
	all, err := repo.ListByDate(ctx, "practice-1", "2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 appointments, got %d", len(all))
	}
	_ = appt
}

func TestBook_InvalidRequest(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Book(context.Background(), createReq("2024-01-15", "", 30, "", ""))
	if err != ErrMissingDateTime {
		t.Errorf("expected ErrMissingDateTime, got %v", err)
	}
}

func TestReschedule_ExcludesSelf(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, createReq("2024-01-15", "10:00", 30, "Anna", "Becker"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Moving the appointment within its own slot must not report a conflict
	// with itself.
	updated, info, err := svc.Reschedule(ctx, "practice-1", appt.ID, &UpdateAppointmentRequest{
		Date: "2024-01-15",
		Time: "10:15",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Time != "10:15" {
		t.Errorf("expected time 10:15, got %s", updated.Time)
	}
	if info.HasConflict {
		t.Errorf("appointment conflicted with itself: %+v", info)
	}
}

func TestReschedule_DetectsNewConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Book(ctx, createReq("2024-01-15", "09:00", 60, "Anna", "Becker")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	appt, _, err := svc.Book(ctx, createReq("2024-01-15", "11:00", 30, "Jonas", "Vogel"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, info, err := svc.Reschedule(ctx, "practice-1", appt.ID, &UpdateAppointmentRequest{
		Date: "2024-01-15",
		Time: "09:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.HasConflict {
		t.Error("expected conflict after rescheduling into an occupied slot")
	}
}

func TestCheckConflicts_IncompleteCandidate(t *testing.T) {
	svc, _ := newTestService(t)

	info, err := svc.CheckConflicts(context.Background(), "practice-1", schedule.Appointment{Date: "2024-01-15"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.HasConflict {
		t.Error("incomplete candidate must yield no conflict")
	}
}

func TestDaySummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, req := range []*CreateAppointmentRequest{
		createReq("2024-01-15", "09:00", 30, "Anna", "Becker"),
		createReq("2024-01-15", "09:15", 30, "Jonas", "Vogel"),
		createReq("2024-01-15", "11:00", 30, "Mara", "Klein"),
	} {
		if _, _, err := svc.Book(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	clusters, err := svc.DaySummary(ctx, "practice-1", "2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].TimeRange != "09:00 - 09:15" {
		t.Errorf("time range = %q", clusters[0].TimeRange)
	}
}

func TestFreeSlots_RespectsOpeningHours(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Book(ctx, createReq("2024-01-15", "09:00", 90, "Anna", "Becker")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slots, err := svc.FreeSlots(ctx, "practice-1", "2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Open 09:00–12:00, slot 30 min; 09:00–10:30 blocked.
	want := []string{"10:30", "11:00", "11:30"}
	if len(slots) != len(want) {
		t.Fatalf("free slots = %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slot[%d] = %s, want %s", i, slots[i], want[i])
		}
	}
}

func TestCancel(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, createReq("2024-01-15", "10:00", 30, "Anna", "Becker"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, "practice-1", appt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
}

func TestCancel_WrongPractice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, createReq("2024-01-15", "10:00", 30, "Anna", "Becker"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Cancel(ctx, "practice-2", appt.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for foreign practice, got %v", err)
	}
}

func TestCancel_FreesTheSlot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, _, err := svc.Book(ctx, createReq("2024-01-15", "10:00", 30, "Anna", "Becker"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Cancel(ctx, "practice-1", appt.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := svc.CheckConflicts(ctx, "practice-1", schedule.Appointment{Date: "2024-01-15", Time: "10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.HasConflict {
		t.Errorf("cancelled appointment must not conflict: %+v", info)
	}

	occupants, err := svc.SlotOccupancy(ctx, "practice-1", "2024-01-15", "10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occupants) != 0 {
		t.Errorf("cancelled appointment still occupies the slot: %+v", occupants)
	}

	free, err := svc.FreeSlots(ctx, "practice-1", "2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, slot := range free {
		if slot == "10:00" {
			found = true
		}
	}
	if !found {
		t.Errorf("10:00 must be offered again after cancellation, got %v", free)
	}
}
