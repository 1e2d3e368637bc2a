package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxemarket/storefront-backend/pkg/config"
	pkgredis "github.com/luxemarket/storefront-backend/pkg/redis"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", pkgredis.ErrNil
	}
	return val, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memStore) AccessSessionKey(accessID string) string { return "sess:" + accessID }

var testJWT = config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60}

func newTestManager(t *testing.T) (*Manager, *memStore) {
	t.Helper()
	store := newMemStore()
	m, err := NewManager(store, testJWT)
	require.NoError(t, err)
	return m, store
}

func TestGenerateRotateRevoke(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := m.Generate(ctx, "access-1", userID)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, store.ttls["sess:access-1"])

	ok, err := m.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = m.Rotate(ctx, "access-1", userID, "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	nextID, nextToken, err := m.Rotate(ctx, "access-1", userID, token)
	require.NoError(t, err)
	assert.NotEqual(t, token, nextToken)
	assert.NotContains(t, store.data, "sess:access-1")

	ok, _ = m.HasSession(ctx, nextID)
	assert.True(t, ok)

	require.NoError(t, m.Revoke(ctx, nextID))
	ok, _ = m.HasSession(ctx, nextID)
	assert.False(t, ok)
}

func TestStoredEntryRecordsOwner(t *testing.T) {
	m, store := newTestManager(t)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	userID := uuid.New()

	_, err := m.Generate(context.Background(), "access-1", userID)
	require.NoError(t, err)

	var e entry
	require.NoError(t, json.Unmarshal([]byte(store.data["sess:access-1"]), &e))
	assert.Equal(t, userID.String(), e.UserID)
	assert.Equal(t, fixed, e.IssuedAt)
}

func TestRotateRejects(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	token, err := m.Generate(ctx, "access-1", uuid.New())
	require.NoError(t, err)

	_, _, err = m.Rotate(ctx, "access-1", uuid.New(), token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "other user")

	_, _, err = m.Rotate(ctx, "missing", uuid.New(), "tok")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "unknown session")

	_, _, err = m.Rotate(ctx, " ", uuid.New(), token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "blank access id")

	store.data["sess:garbled"] = "{"
	_, _, err = m.Rotate(ctx, "garbled", uuid.New(), "tok")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "unreadable entry")
}

func TestBlankAccessID(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Generate(ctx, "", uuid.New())
	assert.ErrorIs(t, err, ErrNoAccessID)
	assert.ErrorIs(t, m.Revoke(ctx, " "), ErrNoAccessID)
	_, err = m.HasSession(ctx, "")
	assert.ErrorIs(t, err, ErrNoAccessID)
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(nil, testJWT)
	assert.Error(t, err)

	_, err = NewManager(newMemStore(), config.JWTConfig{ExpirationMinutes: 15})
	assert.ErrorContains(t, err, "must be positive")

	_, err = NewManager(newMemStore(), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 60})
	assert.ErrorContains(t, err, "must exceed")
}
