package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage
type Repository interface {
	Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error)
	GetByID(ctx context.Context, practiceID, id string) (*Appointment, error)
	Update(ctx context.Context, practiceID, id string, req *UpdateAppointmentRequest) (*Appointment, error)
	Delete(ctx context.Context, practiceID, id string) error
	ListByPractice(ctx context.Context, practiceID string, filter ListFilter) ([]*Appointment, error)
	ListByDate(ctx context.Context, practiceID, date string) ([]*Appointment, error)
	ListByPatient(ctx context.Context, practiceID, patientID string) ([]*Appointment, error)
	DeleteByPatient(ctx context.Context, practiceID, patientID string) (int64, error)
}

// InMemoryRepository is an in-memory Repository used in tests and local
// development without a database.
type InMemoryRepository struct {
	mu    sync.RWMutex
	appts map[string]*Appointment
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{appts: make(map[string]*Appointment)}
}

// Create stores a new appointment in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	source := req.Source
	if source == "" {
		source = SourcePortal
	}
	appt := &Appointment{
		ID:               uuid.New().String(),
		PracticeID:       req.PracticeID,
		PatientID:        req.PatientID,
		Date:             req.Date,
		Time:             req.Time,
		DurationMinutes:  req.DurationMinutes,
		Service:          req.Service,
		Status:           StatusScheduled,
		Source:           source,
		PatientFirstName: req.PatientFirstName,
		PatientLastName:  req.PatientLastName,
		PatientEmail:     req.PatientEmail,
		Notes:            req.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	r.mu.Lock()
	r.appts[appt.ID] = appt
	r.mu.Unlock()

	return appt, nil
}

// GetByID retrieves an appointment scoped to a practice
func (r *InMemoryRepository) GetByID(ctx context.Context, practiceID, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appts[id]
	if !ok || appt.PracticeID != practiceID {
		return nil, ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

// Update applies the editable fields to a stored appointment
func (r *InMemoryRepository) Update(ctx context.Context, practiceID, id string, req *UpdateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[id]
	if !ok || appt.PracticeID != practiceID {
		return nil, ErrNotFound
	}
	if req.Date != "" {
		appt.Date = req.Date
		appt.Time = req.Time
	}
	if req.DurationMinutes > 0 {
		appt.DurationMinutes = req.DurationMinutes
	}
	if req.Service != "" {
		appt.Service = req.Service
	}
	if req.Status != "" {
		appt.Status = req.Status
	}
	if req.Notes != "" {
		appt.Notes = req.Notes
	}
	appt.UpdatedAt = time.Now().UTC()

	copied := *appt
	return &copied, nil
}

// Delete removes an appointment
func (r *InMemoryRepository) Delete(ctx context.Context, practiceID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[id]
	if !ok || appt.PracticeID != practiceID {
		return ErrNotFound
	}
	delete(r.appts, id)
	return nil
}

// ListByPractice lists appointments for a practice, newest date first unless
// a date filter is set, in which case results are ordered by time of day.
func (r *InMemoryRepository) ListByPractice(ctx context.Context, practiceID string, filter ListFilter) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Appointment
	for _, appt := range r.appts {
		if appt.PracticeID != practiceID {
			continue
		}
		if filter.Date != "" && appt.Date != filter.Date {
			continue
		}
		if filter.Status != "" && appt.Status != filter.Status {
			continue
		}
		copied := *appt
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].Time < result[j].Time
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// ListByDate lists a practice's appointments on one calendar date, ordered
// by time of day. This is the snapshot the conflict engine operates on;
// cancelled appointments hold no slot and are excluded.
func (r *InMemoryRepository) ListByDate(ctx context.Context, practiceID, date string) ([]*Appointment, error) {
	appts, err := r.ListByPractice(ctx, practiceID, ListFilter{Date: date})
	if err != nil {
		return nil, err
	}
	result := appts[:0]
	for _, appt := range appts {
		if appt.Status != StatusCancelled {
			result = append(result, appt)
		}
	}
	return result, nil
}

// ListByPatient lists all appointments linked to one patient.
func (r *InMemoryRepository) ListByPatient(ctx context.Context, practiceID, patientID string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Appointment
	for _, appt := range r.appts {
		if appt.PracticeID != practiceID || appt.PatientID != patientID {
			continue
		}
		copied := *appt
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].Time < result[j].Time
	})
	return result, nil
}

// DeleteByPatient removes all appointments linked to one patient and
// returns how many rows went away. Used by GDPR erasure.
func (r *InMemoryRepository) DeleteByPatient(ctx context.Context, practiceID, patientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, appt := range r.appts {
		if appt.PracticeID == practiceID && appt.PatientID == patientID {
			delete(r.appts, id)
			deleted++
		}
	}
	return deleted, nil
}
