package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateHash_Deterministic(t *testing.T) {
	h1 := GenerateHash("insights:{\"rows\":10}", "user-1")
	h2 := GenerateHash("insights:{\"rows\":10}", "user-1")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestGenerateHash_UserScoping(t *testing.T) {
	content := "insights:{\"rows\":10}"

	assert.NotEqual(t, GenerateHash(content, "user-1"), GenerateHash(content, "user-2"))
	assert.NotEqual(t, GenerateHash(content, "user-1"), GenerateHash(content, ""))
	assert.NotEqual(t, GenerateHash(content, ""), GenerateHash("other content", ""))
}

func TestService_SetAndGet(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	ctx := context.Background()

	result := json.RawMessage(`{"summary":"sales up"}`)
	hash := GenerateHash("insights:stats", "user-1")

	svc.Set(ctx, hash, result, "user-1", 24)

	got := svc.Get(ctx, hash)
	assert.JSONEq(t, string(result), string(got))
}

func TestService_GetMissReturnsNil(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)

	assert.Nil(t, svc.Get(context.Background(), GenerateHash("never stored", "")))
}

func TestService_ExpiredEntryIsMiss(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	hash := GenerateHash("insights:stats", "")
	svc.Set(ctx, hash, json.RawMessage(`{"a":1}`), "", 1)

	// Still live just inside the TTL
	now = now.Add(59 * time.Minute)
	assert.NotNil(t, svc.Get(ctx, hash))

	// A miss once the TTL passes, even without cleanup running
	now = now.Add(2 * time.Minute)
	assert.Nil(t, svc.Get(ctx, hash))
}

func TestService_SetOverwritesSameHash(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	hash := GenerateHash("insights:stats", "")
	svc.Set(ctx, hash, json.RawMessage(`{"v":1}`), "", 24)
	svc.Set(ctx, hash, json.RawMessage(`{"v":2}`), "", 24)

	assert.JSONEq(t, `{"v":2}`, string(svc.Get(ctx, hash)))
	assert.Len(t, store.entries, 1)
}

func TestService_Cleanup(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	svc.Set(ctx, GenerateHash("a", ""), json.RawMessage(`1`), "", 1)
	svc.Set(ctx, GenerateHash("b", ""), json.RawMessage(`2`), "", 48)

	now = now.Add(2 * time.Hour)
	svc.Cleanup(ctx)

	assert.Nil(t, svc.Get(ctx, GenerateHash("a", "")))
	assert.NotNil(t, svc.Get(ctx, GenerateHash("b", "")))
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string, time.Time) (*Entry, error) {
	return nil, errors.New("store down")
}
func (brokenStore) Put(context.Context, *Entry) error { return errors.New("store down") }
func (brokenStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("store down")
}

func TestService_StoreErrorsAreSwallowed(t *testing.T) {
	svc := NewService(brokenStore{}, nil)
	ctx := context.Background()

	// Read errors are misses, write errors do not panic or propagate
	assert.Nil(t, svc.Get(ctx, "deadbeef"))
	svc.Set(ctx, "deadbeef", json.RawMessage(`{}`), "", 24)
	svc.Cleanup(ctx)
}
