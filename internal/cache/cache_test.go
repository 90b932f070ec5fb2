package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

func newRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), mr
}

func TestRedisGetOrComputeIntCaches(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	calls := 0
	producer := func() (int, error) { calls++; return 5, nil }

	n, err := store.GetOrComputeInt(ctx, "k", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = store.GetOrComputeInt(ctx, "k", time.Minute, func() (int, error) {
		t.Fatal("producer must not run on a hit")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 1, calls)
}

func TestRedisExpiryRecomputes(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	_, err := store.GetOrComputeInt(ctx, "k", time.Minute, func() (int, error) { return 1, nil })
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	n, err := store.GetOrComputeInt(ctx, "k", time.Minute, func() (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRedisDeleteInvalidates(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	_, err := store.GetOrComputeInt(ctx, "k", time.Minute, func() (int, error) { return 1, nil })
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "k"))

	n, err := store.GetOrComputeInt(ctx, "k", time.Minute, func() (int, error) { return 9, nil })
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestRedisDegradesToProducerWhenDown(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	n, err := store.GetOrComputeInt(context.Background(), "k", time.Minute, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestRedisProducerErrorPropagates(t *testing.T) {
	store, _ := newRedisStore(t)
	boom := errors.New("boom")

	_, err := store.GetOrComputeInt(context.Background(), "missing", time.Minute, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestMemoryExpiry(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	n, err := store.GetOrComputeInt(ctx, "k", 10*time.Millisecond, func() (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	time.Sleep(20 * time.Millisecond)

	n, err = store.GetOrComputeInt(ctx, "k", time.Minute, func() (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryDelete(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.GetOrComputeInt(ctx, "k", time.Minute, func() (int, error) { return 1, nil })
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "k", "absent"))

	n, err := store.GetOrComputeInt(ctx, "k", time.Minute, func() (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestKeyShapes(t *testing.T) {
	assert.Equal(t, "quarters_usage:4:9", QuartersUsageKey(4, 9))
	assert.Equal(t, "availability:CLASS_SEAT:0:0:0:12",
		AvailabilityKey(model.ClassSeatKey(12)))
	assert.Equal(t, "availability:WEEK_QUARTERS:1:2:3:0",
		AvailabilityKey(model.WeekQuartersKey(1, 2, 3)))
}
