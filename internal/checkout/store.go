package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
	"github.com/ticpin-app/ticpin-backend/pkg/redis"
)

type sessionKeyer interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CheckoutSessionKey(sessionID string) string
}

// RedisStore persists checkout sessions as JSON under the session key.
type RedisStore struct {
	client sessionKeyer
	ttl    time.Duration
}

// NewRedisStore builds a session store on the shared Redis client.
func NewRedisStore(client sessionKeyer, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Save overwrites the stored session and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout session")
	}
	key := s.client.CheckoutSessionKey(session.ID.String())
	if err := s.client.Set(ctx, key, payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store checkout session")
	}
	return nil
}

// Get loads a session by id, returning not-found when the key is absent.
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	key := s.client.CheckoutSessionKey(id.String())
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}
	return &session, nil
}

// Delete removes the stored session. Deleting an absent session is a no-op.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	key := s.client.CheckoutSessionKey(id.String())
	if err := s.client.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete checkout session")
	}
	return nil
}
