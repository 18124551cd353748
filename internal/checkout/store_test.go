package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	pkgerrors "github.com/ticpin-app/ticpin-backend/pkg/errors"
)

type fakeKeyer struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeKeyer() *fakeKeyer {
	return &fakeKeyer{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKeyer) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKeyer) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeKeyer) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeKeyer) CheckoutSessionKey(sessionID string) string {
	return "ticpin:checkout:" + sessionID
}

func TestRedisStoreRoundTrip(t *testing.T) {
	keyer := newFakeKeyer()
	store, err := NewRedisStore(keyer, 24*time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	session := &Session{
		ID:       uuid.New(),
		Category: enums.CategoryEvent,
		Step:     enums.CheckoutStepReview,
	}
	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("save: %v", err)
	}

	key := keyer.CheckoutSessionKey(session.ID.String())
	if keyer.ttls[key] != 24*time.Hour {
		t.Fatalf("expected ttl 24h, got %v", keyer.ttls[key])
	}

	loaded, err := store.Get(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.ID != session.ID || loaded.Step != enums.CheckoutStepReview {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}

	if err := store.Delete(context.Background(), session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = store.Get(context.Background(), session.ID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestNewRedisStoreValidatesTTL(t *testing.T) {
	if _, err := NewRedisStore(newFakeKeyer(), 0); err == nil {
		t.Fatal("expected ttl validation error")
	}
}
