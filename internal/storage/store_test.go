package storage

import (
	"context"
	"testing"
	"time"

	"job-tracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")

	got, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, m.Set(ctx, map[string][]byte{"a": []byte(`1`), "b": []byte(`"x"`)}))
	got, err = m.Get(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte(`1`), "b": []byte(`"x"`)}, got)

	require.NoError(t, m.Remove(ctx, "a"))
	got, err = m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")
	v := []byte(`[1]`)
	require.NoError(t, m.Set(ctx, map[string][]byte{"k": v}))
	v[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got["k"]))
}

func TestMemory_Subscribe(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(AreaLocal)
	ch, cancel := m.Subscribe()
	defer cancel()

	require.NoError(t, m.Set(ctx, map[string][]byte{KeySettings: []byte(`{}`), KeyApplications: []byte(`[]`)}))

	select {
	case c := <-ch:
		assert.Equal(t, AreaLocal, c.Area)
		assert.Equal(t, []string{KeyApplications, KeySettings}, c.Keys)
	case <-time.After(time.Second):
		t.Fatal("expected change event")
	}

	require.NoError(t, m.Remove(ctx, "never-set"))
	select {
	case c := <-ch:
		t.Fatalf("unexpected change %v", c)
	default:
	}

	cancel()
	_, open := <-ch
	assert.False(t, open)
	cancel()
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory("")

	assert.ErrorIs(t, m.Set(ctx, map[string][]byte{"k": []byte(`1`)}), context.Canceled)
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")

	type payload struct {
		Name string `json:"name"`
	}
	var out payload
	ok, err := GetJSON(ctx, m, "p", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SetJSON(ctx, m, "p", payload{Name: "acme"}))
	ok, err = GetJSON(ctx, m, "p", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "acme", out.Name)

	require.NoError(t, m.Set(ctx, map[string][]byte{"bad": []byte(`{`)}))
	_, err = GetJSON(ctx, m, "bad", &out)
	assert.Error(t, err)
}

func unreachableRedis(t *testing.T) *Redis {
	t.Helper()
	r := NewRedis(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: "1"}, nil)
	require.False(t, r.Available())
	return r
}

func TestRedis_Unavailable(t *testing.T) {
	r := unreachableRedis(t)
	ctx := context.Background()

	_, err := r.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, r.Set(ctx, map[string][]byte{"k": []byte(`1`)}), ErrUnavailable)
	assert.NoError(t, r.Close())
}

func TestSession_FallsBackUnderPrefix(t *testing.T) {
	ctx := context.Background()
	persistent := NewMemory(AreaLocal)
	s := NewSession(unreachableRedis(t), persistent, nil)

	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Set(ctx, map[string][]byte{"notification_1": []byte(`{"company":"Acme"}`)}))
	assert.Equal(t, []string{"session:notification_1"}, persistent.Keys(SessionPrefix))

	got, err := s.Get(ctx, "notification_1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"company":"Acme"}`, string(got["notification_1"]))

	c := <-ch
	assert.Equal(t, AreaSession, c.Area)
	assert.Equal(t, []string{"notification_1"}, c.Keys)

	require.NoError(t, s.Remove(ctx, "notification_1"))
	assert.Empty(t, persistent.Keys(SessionPrefix))
}

func TestSession_NoBackends(t *testing.T) {
	s := NewSession(nil, nil, nil)
	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Remove(context.Background(), "k"), ErrUnavailable)
}
