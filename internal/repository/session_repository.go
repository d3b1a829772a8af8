package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/crm-service/internal/domain"
)

const sessionKeyPrefix = "session:"

// SessionRepository stores live sessions in Redis. Presence of the record
// is authoritative for session validity: logout deletes it and every
// instance sharing the Redis sees the session disappear at once.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session, ttl time.Duration) error
	// Get returns (nil, nil) when no session exists under the id.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionRepository struct {
	client *redis.Client
}

// NewSessionRepository returns a Redis-backed implementation.
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err()
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		return nil, nil
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}
