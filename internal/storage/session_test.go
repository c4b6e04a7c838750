package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisClient(client, time.Minute, nil), mr
}

func TestRedis_RoundTripWithTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)
	require.True(t, r.Available())

	require.NoError(t, r.Set(ctx, map[string][]byte{"notification_1": []byte(`{"company":"Acme"}`)}))
	assert.True(t, mr.Exists(AreaSession+":notification_1"))
	assert.Equal(t, time.Minute, mr.TTL(AreaSession+":notification_1"))

	got, err := r.Get(ctx, "notification_1", "missing")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"notification_1": []byte(`{"company":"Acme"}`)}, got)

	require.NoError(t, r.Remove(ctx, "notification_1"))
	got, err = r.Get(ctx, "notification_1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSession_FailedRedisWriteStillReadable(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)
	persistent := NewMemory(AreaLocal)
	s := NewSession(r, persistent, nil)

	mr.SetError("READONLY write refused")
	require.NoError(t, s.Set(ctx, map[string][]byte{"notification_1": []byte(`{"company":"Acme"}`)}))
	assert.Equal(t, []string{"session:notification_1"}, persistent.Keys(SessionPrefix))
	mr.SetError("")

	require.NoError(t, s.Set(ctx, map[string][]byte{"notification_2": []byte(`{"company":"Globex"}`)}))
	assert.True(t, mr.Exists(AreaSession+":notification_2"))

	got, err := s.Get(ctx, "notification_1", "notification_2", "notification_3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"company":"Acme"}`, string(got["notification_1"]))
	assert.JSONEq(t, `{"company":"Globex"}`, string(got["notification_2"]))
	assert.NotContains(t, got, "notification_3")

	require.NoError(t, s.Remove(ctx, "notification_1", "notification_2"))
	assert.Empty(t, persistent.Keys(SessionPrefix))
	got, err = s.Get(ctx, "notification_1", "notification_2")
	require.NoError(t, err)
	assert.Empty(t, got)
}
