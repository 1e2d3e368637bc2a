package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxemarket/storefront-backend/pkg/redis"
)

func exerciseStorage(t *testing.T, store Storage) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, KeyCart, `{"items":[]}`))
	require.NoError(t, store.Set(ctx, KeyToken, "abc"))

	value, ok, err := store.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"items":[]}`, value)

	require.ErrorIs(t, store.Set(ctx, " ", "x"), ErrEmptyKey)

	if d, isDeleter := store.(Deleter); isDeleter {
		require.NoError(t, d.Delete(ctx, KeyToken))
		_, ok, err = store.Get(ctx, KeyToken)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStorage(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	exerciseStorage(t, store)

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	value, ok, err := reopened.Get(context.Background(), KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"items":[]}`, value)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), KeyCart)
	require.Error(t, err)

	require.NoError(t, store.Set(context.Background(), KeyCart, "fresh"))
	value, ok, err := store.Get(context.Background(), KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fresh", value)
}

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	value, ok := f.values[key]
	if !ok {
		return "", redis.ErrNil
	}
	return value, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeRedis) StateKey(owner, key string) string {
	return "lm:state:" + owner + ":" + key
}

func TestRedisStoreScopesKeysPerOwner(t *testing.T) {
	backend := newFakeRedis()
	alice, err := NewRedisStore(backend, "alice", time.Hour)
	require.NoError(t, err)
	bob, err := NewRedisStore(backend, "bob", time.Hour)
	require.NoError(t, err)
	exerciseStorage(t, alice)

	_, ok, err := bob.Get(context.Background(), KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Hour, backend.ttls["lm:state:alice:cart"])
}

func TestRedisStorePropagatesBackendErrors(t *testing.T) {
	backend := newFakeRedis()
	backend.err = errors.New("connection refused")
	store, err := NewRedisStore(backend, "alice", 0)
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), KeyCart)
	require.Error(t, err)

	_, err = NewRedisStore(backend, "", 0)
	require.Error(t, err)
}
