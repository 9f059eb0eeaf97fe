package gdpr

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists GDPR requests through their lifecycle.
type Store interface {
	Create(ctx context.Context, req *CreateRequest) (*Request, error)
	GetByID(ctx context.Context, practiceID, id string) (*Request, error)
	ListByPractice(ctx context.Context, practiceID string) ([]*Request, error)
	MarkCompleted(ctx context.Context, practiceID, id string, exportJSON []byte) error
	MarkFailed(ctx context.Context, practiceID, id, reason string) error
}

// InMemoryStore keeps GDPR requests in memory for tests and local
// development.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*Request
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]*Request)}
}

// Create opens a new pending request.
func (s *InMemoryStore) Create(ctx context.Context, req *CreateRequest) (*Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r := &Request{
		ID:         uuid.New().String(),
		PracticeID: req.PracticeID,
		PatientID:  req.PatientID,
		Type:       req.Type,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.requests[r.ID] = r
	s.mu.Unlock()

	out := *r
	return &out, nil
}

// GetByID returns a request scoped to the practice.
func (s *InMemoryStore) GetByID(ctx context.Context, practiceID, id string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok || r.PracticeID != practiceID {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

// ListByPractice lists a practice's requests, newest first.
func (s *InMemoryStore) ListByPractice(ctx context.Context, practiceID string) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Request
	for _, r := range s.requests {
		if r.PracticeID != practiceID {
			continue
		}
		out := *r
		result = append(result, &out)
	}
	return result, nil
}

// MarkCompleted transitions a request to completed, storing the export
// document when there is one.
func (s *InMemoryStore) MarkCompleted(ctx context.Context, practiceID, id string, exportJSON []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok || r.PracticeID != practiceID {
		return ErrNotFound
	}
	now := time.Now().UTC()
	r.Status = StatusCompleted
	r.ExportJSON = exportJSON
	r.CompletedAt = &now
	return nil
}

// MarkFailed transitions a request to failed with a reason.
func (s *InMemoryStore) MarkFailed(ctx context.Context, practiceID, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok || r.PracticeID != practiceID {
		return ErrNotFound
	}
	now := time.Now().UTC()
	r.Status = StatusFailed
	r.Error = reason
	r.CompletedAt = &now
	return nil
}
