package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func newGormTestStore(t *testing.T) *GormStore {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite", "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	s, err := NewGormStore(context.Background(), gdb)
	require.NoError(t, err)
	return s
}

func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"redis": func(t *testing.T) Store {
			_, client := setupTestRedis(t)
			return NewRedisStore(client, "test:")
		},
		"gorm": func(t *testing.T) Store { return newGormTestStore(t) },
	}
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		factory := factory
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			s := factory(t)

			_, ok, err := s.Get(ctx, "auth_token")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, map[string]string{
				"auth_token":   "tkn-1",
				"current_user": `{"id":1}`,
			}))

			v, ok, err := s.Get(ctx, "auth_token")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "tkn-1", v)

			require.NoError(t, s.Set(ctx, map[string]string{"auth_token": "tkn-2"}))
			v, _, err = s.Get(ctx, "auth_token")
			require.NoError(t, err)
			assert.Equal(t, "tkn-2", v)

			require.NoError(t, s.Delete(ctx, "auth_token", "current_user", "missing"))
			for _, k := range []string{"auth_token", "current_user"} {
				_, ok, err := s.Get(ctx, k)
				require.NoError(t, err)
				assert.False(t, ok, k)
			}

			require.NoError(t, s.Delete(ctx))
			require.NoError(t, s.Set(ctx, nil))
		})
	}
}

func TestRedisStore_UsesKeyPrefix(t *testing.T) {
	t.Parallel()

	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "livreur:")

	require.NoError(t, s.Set(context.Background(), map[string]string{"auth_token": "abc"}))

	got, err := mr.Get("livreur:auth_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
	assert.False(t, mr.Exists("auth_token"))
}

func TestDialRedis(t *testing.T) {
	t.Parallel()

	mr, _ := setupTestRedis(t)

	client, err := DialRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	client.Close()

	_, err = DialRedis(context.Background(), "://bad")
	assert.Error(t, err)
}
