package voiceagent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/praxisflow/praxisflow/internal/llm"
)

const defaultSessionTTL = 2 * time.Hour

// CallSession keeps per-call state between webhook invocations: the
// transcript so far and the booking fields extracted from it.
type CallSession struct {
	CallID        string             `json:"call_id"`
	PracticeID    string             `json:"practice_id"`
	Provider      string             `json:"provider"`
	Transcript    string             `json:"transcript"`
	Fields        *llm.BookingFields `json:"fields,omitempty"`
	AppointmentID string             `json:"appointment_id,omitempty"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// SessionStore persists call sessions in Redis.
type SessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(redisClient *redis.Client, ttl time.Duration) *SessionStore {
	if redisClient == nil {
		panic("voiceagent: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{
		redis:  redisClient,
		ttl:    ttl,
		tracer: otel.Tracer("praxisflow.internal.voiceagent.sessions"),
	}
}

// Save persists the session under its call ID.
func (s *SessionStore) Save(ctx context.Context, session *CallSession) error {
	ctx, span := s.tracer.Start(ctx, "voiceagent.save_session")
	defer span.End()

	if session.CallID == "" {
		return ErrMissingCallID
	}
	session.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("voiceagent: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.CallID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("voiceagent: failed to persist session: %w", err)
	}
	return nil
}

// Load returns the session for a call ID.
func (s *SessionStore) Load(ctx context.Context, callID string) (*CallSession, error) {
	ctx, span := s.tracer.Start(ctx, "voiceagent.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(callID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("voiceagent: failed to load session: %w", err)
	}

	var session CallSession
	if err := json.Unmarshal(data, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("voiceagent: failed to decode session: %w", err)
	}
	return &session, nil
}

// Delete drops the session once the call is done.
func (s *SessionStore) Delete(ctx context.Context, callID string) error {
	if err := s.redis.Del(ctx, sessionKey(callID)).Err(); err != nil {
		return fmt.Errorf("voiceagent: failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(callID string) string {
	return fmt.Sprintf("voice:call:%s", callID)
}
