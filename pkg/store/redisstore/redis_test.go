package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kit/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrchypark/nalssi/pkg/store"
)

func setupStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, log.NewNopLogger())
}

func TestRedisStore_SetAndGet(t *testing.T) {
	rs := setupStore(t)
	ctx := context.Background()

	entry := &store.Entry{
		Location: "Seoul",
		Unit:     "metric",
		StoredAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, rs.Set(ctx, "k", []byte(`{"temperature":21}`), entry))

	value, got, err := rs.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"temperature":21}`), value)
	assert.Equal(t, entry.Location, got.Location)
	assert.Equal(t, entry.Unit, got.Unit)
	assert.Equal(t, entry.StoredAt, got.StoredAt.UTC().Truncate(time.Second))
}

func TestRedisStore_GetMissing(t *testing.T) {
	rs := setupStore(t)

	_, _, err := rs.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedisStore_Overwrite(t *testing.T) {
	rs := setupStore(t)
	ctx := context.Background()

	require.NoError(t, rs.Set(ctx, "k", []byte("old"), &store.Entry{StoredAt: time.Now()}))
	require.NoError(t, rs.Set(ctx, "k", []byte("new"), &store.Entry{StoredAt: time.Now()}))

	value, _, err := rs.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), value)
}

func TestRedisStore_Delete(t *testing.T) {
	rs := setupStore(t)
	ctx := context.Background()

	require.NoError(t, rs.Set(ctx, "k", []byte("v"), &store.Entry{StoredAt: time.Now()}))
	require.NoError(t, rs.Delete(ctx, "k"))

	_, _, err := rs.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
