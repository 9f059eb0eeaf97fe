package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Subscription statuses mirrored from Stripe.
const (
	StatusTrial     = "trial"
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusCancelled = "cancelled"
)

// Subscription is a practice's billing state.
type Subscription struct {
	PracticeID       string    `json:"practice_id"`
	Status           string    `json:"status"`
	StripeCustomerID string    `json:"stripe_customer_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SubscriptionStore persists per-practice subscription state.
type SubscriptionStore interface {
	Get(ctx context.Context, practiceID string) (*Subscription, error)
	UpdateStatus(ctx context.Context, practiceID, status, stripeCustomerID string) error
}

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps subscription state on the practices table.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a Postgres-backed subscription store.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get returns a practice's subscription state.
func (s *PostgresStore) Get(ctx context.Context, practiceID string) (*Subscription, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, subscription_status, COALESCE(stripe_customer_id, ''), updated_at
		FROM practices
		WHERE id = $1`, practiceID)

	var sub Subscription
	if err := row.Scan(&sub.PracticeID, &sub.Status, &sub.StripeCustomerID, &sub.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPracticeNotFound
		}
		return nil, fmt.Errorf("billing: get subscription: %w", err)
	}
	return &sub, nil
}

// UpdateStatus updates a practice's subscription status and, when known,
// its Stripe customer ID.
func (s *PostgresStore) UpdateStatus(ctx context.Context, practiceID, status, stripeCustomerID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE practices
		SET subscription_status = $1,
			stripe_customer_id = COALESCE(NULLIF($2, ''), stripe_customer_id),
			updated_at = $3
		WHERE id = $4`,
		status, stripeCustomerID, time.Now().UTC(), practiceID,
	)
	if err != nil {
		return fmt.Errorf("billing: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPracticeNotFound
	}
	return nil
}

// InMemoryStore is a SubscriptionStore for tests and local development.
type InMemoryStore struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewInMemoryStore creates an in-memory subscription store seeded with the
// given practice IDs in trial state.
func NewInMemoryStore(practiceIDs ...string) *InMemoryStore {
	subs := make(map[string]*Subscription, len(practiceIDs))
	for _, id := range practiceIDs {
		subs[id] = &Subscription{PracticeID: id, Status: StatusTrial, UpdatedAt: time.Now().UTC()}
	}
	return &InMemoryStore{subs: subs}
}

// Get returns a practice's subscription state.
func (s *InMemoryStore) Get(ctx context.Context, practiceID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[practiceID]
	if !ok {
		return nil, ErrPracticeNotFound
	}
	out := *sub
	return &out, nil
}

// UpdateStatus updates a practice's subscription status.
func (s *InMemoryStore) UpdateStatus(ctx context.Context, practiceID, status, stripeCustomerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[practiceID]
	if !ok {
		return ErrPracticeNotFound
	}
	sub.Status = status
	if stripeCustomerID != "" {
		sub.StripeCustomerID = stripeCustomerID
	}
	sub.UpdatedAt = time.Now().UTC()
	return nil
}
