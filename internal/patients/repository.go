package patients

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for patient storage
type Repository interface {
	Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error)
	GetByID(ctx context.Context, practiceID, id string) (*Patient, error)
	Update(ctx context.Context, practiceID, id string, req *UpdatePatientRequest) (*Patient, error)
	Delete(ctx context.Context, practiceID, id string) error
	List(ctx context.Context, practiceID string, filter ListFilter) ([]*Patient, error)
}

// InMemoryRepository is a stub implementation of Repository using in-memory storage
type InMemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{patients: make(map[string]*Patient)}
}

// Create creates a new patient in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Patient{
		ID:              uuid.New().String(),
		PracticeID:      req.PracticeID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		DateOfBirth:     req.DateOfBirth,
		InsuranceNumber: req.InsuranceNumber,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.mu.Lock()
	r.patients[p.ID] = p
	r.mu.Unlock()

	out := *p
	return &out, nil
}

// GetByID retrieves a patient scoped to the practice.
func (r *InMemoryRepository) GetByID(ctx context.Context, practiceID, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok || p.PracticeID != practiceID {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

// Update applies the editable fields.
func (r *InMemoryRepository) Update(ctx context.Context, practiceID, id string, req *UpdatePatientRequest) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok || p.PracticeID != practiceID {
		return nil, ErrNotFound
	}
	if req.FirstName != "" {
		p.FirstName = req.FirstName
	}
	if req.LastName != "" {
		p.LastName = req.LastName
	}
	if req.Email != "" {
		p.Email = req.Email
	}
	if req.Phone != "" {
		p.Phone = req.Phone
	}
	if req.DateOfBirth != "" {
		p.DateOfBirth = req.DateOfBirth
	}
	if req.InsuranceNumber != "" {
		p.InsuranceNumber = req.InsuranceNumber
	}
	if req.Notes != "" {
		p.Notes = req.Notes
	}
	p.UpdatedAt = time.Now().UTC()

	out := *p
	return &out, nil
}

// Delete removes the patient record entirely.
func (r *InMemoryRepository) Delete(ctx context.Context, practiceID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok || p.PracticeID != practiceID {
		return ErrNotFound
	}
	delete(r.patients, id)
	return nil
}

// List returns the practice's patients, optionally filtered by a search term.
func (r *InMemoryRepository) List(ctx context.Context, practiceID string, filter ListFilter) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term := strings.ToLower(filter.Search)
	var result []*Patient
	for _, p := range r.patients {
		if p.PracticeID != practiceID {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.FirstName), term) &&
			!strings.Contains(strings.ToLower(p.LastName), term) &&
			!strings.Contains(strings.ToLower(p.Email), term) {
			continue
		}
		out := *p
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	return result, nil
}
