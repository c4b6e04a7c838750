package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"job-tracker/internal/domain/application"
	"job-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore wraps a Memory store and fails writes while failing is set.
type flakyStore struct {
	*storage.Memory
	failing bool
}

func (s *flakyStore) Set(ctx context.Context, items map[string][]byte) error {
	if s.failing {
		return storage.ErrUnavailable
	}
	return s.Memory.Set(ctx, items)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func ptr[T any](v T) *T { return &v }

func newTestManager(t *testing.T, store storage.Store, now time.Time) *Manager {
	t.Helper()
	m := NewManager(store, WithClock(fixedClock(now)), WithIDGenerator(sequentialIDs()))
	require.NoError(t, m.Hydrate(context.Background()))
	return m
}

func TestManager_HydrateWritesDefaultSettings(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(storage.AreaLocal)
	m := newTestManager(t, store, time.Now())

	assert.Equal(t, application.DefaultSettings(), m.Settings())
	assert.Empty(t, m.List(Filter{}))

	var saved application.Settings
	ok, err := storage.GetJSON(ctx, store, storage.KeySettings, &saved)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, application.Settings{AutoCapture: false, Notifications: true}, saved)
}

func TestManager_CreateUpdateCycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	m := newTestManager(t, storage.NewMemory(storage.AreaLocal), now)

	created, err := m.Create(ctx, application.Fields{
		Company:  ptr("Acme"),
		Position: ptr("Engineer"),
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, application.StatusApplied, created.Status)
	assert.Equal(t, "2024-03-10", created.DateApplied)
	assert.Equal(t, []string{}, created.Skills)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	updated, err := m.Update(ctx, created.ID, application.Fields{Status: ptr(application.StatusInterview)})
	require.NoError(t, err)
	assert.Equal(t, application.StatusInterview, updated.Status)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	cycled, ok, err := m.CycleStatus(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, application.StatusOffer, cycled.Status)
	assert.True(t, cycled.UpdatedAt.After(updated.UpdatedAt))
}

func TestManager_CreatePrepends(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, storage.NewMemory(storage.AreaLocal), time.Now())

	_, err := m.Create(ctx, application.Fields{Company: ptr("First")})
	require.NoError(t, err)
	_, err = m.Create(ctx, application.Fields{Company: ptr("Second")})
	require.NoError(t, err)

	list := m.List(Filter{})
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Company)
	assert.Equal(t, "First", list[1].Company)
}

func TestManager_CreateRejectsInvalidFields(t *testing.T) {
	m := newTestManager(t, storage.NewMemory(storage.AreaLocal), time.Now())

	_, err := m.Create(context.Background(), application.Fields{Status: ptr(application.Status("ghosted"))})
	assert.ErrorIs(t, err, application.ErrInvalidStatus)

	_, err = m.Create(context.Background(), application.Fields{DateApplied: ptr("10/03/2024")})
	assert.ErrorIs(t, err, application.ErrInvalidInput)
	assert.Empty(t, m.List(Filter{}))
}

func TestManager_UnknownIDs(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, storage.NewMemory(storage.AreaLocal), time.Now())
	_, err := m.Create(ctx, application.Fields{Company: ptr("Acme")})
	require.NoError(t, err)
	before := m.List(Filter{})

	removed, err := m.Delete(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, before, m.List(Filter{}))

	_, err = m.Update(ctx, "nope", application.Fields{Company: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok, err := m.CycleStatus(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, m.List(Filter{}))
}

func TestManager_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, storage.NewMemory(storage.AreaLocal), time.Now())
	a, err := m.Create(ctx, application.Fields{Company: ptr("A")})
	require.NoError(t, err)
	_, err = m.Create(ctx, application.Fields{Company: ptr("B")})
	require.NoError(t, err)

	removed, err := m.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	_, found := m.Get(a.ID)
	assert.False(t, found)
	assert.Len(t, m.List(Filter{}), 1)

	require.NoError(t, m.ClearAll(ctx))
	assert.Empty(t, m.List(Filter{}))
}

func TestManager_StorageFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Memory: storage.NewMemory(storage.AreaLocal)}
	m := newTestManager(t, store, time.Now())
	rec, err := m.Create(ctx, application.Fields{Company: ptr("Acme")})
	require.NoError(t, err)
	before := m.List(Filter{})

	store.failing = true

	_, err = m.Create(ctx, application.Fields{Company: ptr("Globex")})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	_, err = m.Update(ctx, rec.ID, application.Fields{Company: ptr("Initech")})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	_, _, err = m.CycleStatus(ctx, rec.ID)
	assert.Error(t, err)
	_, err = m.Delete(ctx, rec.ID)
	assert.Error(t, err)
	assert.Error(t, m.ClearAll(ctx))
	assert.Error(t, m.SaveSettings(ctx, application.Settings{AutoCapture: true}))

	assert.Equal(t, before, m.List(Filter{}))
	assert.Equal(t, application.DefaultSettings(), m.Settings())

	store.failing = false
	reloaded := newTestManager(t, store, time.Now())
	assert.Equal(t, before, reloaded.List(Filter{}))
}

func TestManager_HydrateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(storage.AreaLocal)
	m := newTestManager(t, store, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	_, err := m.Create(ctx, application.Fields{
		Company: ptr("Acme"),
		Skills:  ptr([]string{" Go ", "", "Docker"}),
	})
	require.NoError(t, err)
	require.NoError(t, m.SaveSettings(ctx, application.Settings{AutoCapture: true, Notifications: false}))

	other := newTestManager(t, store, time.Now())
	assert.Equal(t, m.List(Filter{}), other.List(Filter{}))
	assert.Equal(t, []string{"Go", "Docker"}, other.List(Filter{})[0].Skills)
	assert.Equal(t, application.Settings{AutoCapture: true}, other.Settings())
}

func TestManager_FilterAndStats(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, storage.NewMemory(storage.AreaLocal), time.Now())
	for _, f := range []application.Fields{
		{Company: ptr("Acme"), Position: ptr("Backend Engineer")},
		{Company: ptr("Globex"), Position: ptr("Designer"), Status: ptr(application.StatusInterview)},
		{Company: ptr("Initech"), Position: ptr("Engineer"), Status: ptr(application.StatusOffer)},
		{Company: ptr("Hooli"), Position: ptr("PM"), Status: ptr(application.StatusRejected)},
		{Company: ptr("Umbrella"), Position: ptr("QA"), Status: ptr(application.StatusPending)},
	} {
		_, err := m.Create(ctx, f)
		require.NoError(t, err)
	}

	assert.Len(t, m.List(Filter{Query: "engineer"}), 2)
	assert.Len(t, m.List(Filter{Query: "GLOBEX"}), 1)
	assert.Len(t, m.List(Filter{Status: "all"}), 5)
	offers := m.List(Filter{Status: "offer"})
	require.Len(t, offers, 1)
	assert.Equal(t, "Initech", offers[0].Company)
	assert.Empty(t, m.List(Filter{Query: "acme", Status: "offer"}))

	assert.Equal(t, Stats{Total: 5, Applied: 1, Interview: 1, Offer: 1}, m.Stats())
	assert.Equal(t, 2, m.ActiveCount())
}

func TestManager_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, storage.NewMemory(storage.AreaLocal), time.Now())
	rec, err := m.Create(ctx, application.Fields{Skills: ptr([]string{"Go"})})
	require.NoError(t, err)

	rec.Skills[0] = "mutated"
	got, ok := m.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"Go"}, got.Skills)
}

func TestManager_StampStrictlyIncreasesWithFrozenClock(t *testing.T) {
	m := NewManager(storage.NewMemory(storage.AreaLocal), WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	prev := m.stamp(time.Time{})
	for i := 0; i < 5; i++ {
		next := m.stamp(prev)
		assert.True(t, next.After(prev))
		prev = next
	}
}

func TestManager_UpdatedAtNeverBeforeCreatedAt(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemory(storage.AreaLocal), WithClock(fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))
	created := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.Replace(ctx, []application.Record{{
		ID:        "1",
		Company:   "Acme",
		Status:    application.StatusApplied,
		CreatedAt: created,
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}, nil))

	rec, ok, err := m.CycleStatus(ctx, "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created, rec.CreatedAt)
	assert.True(t, rec.UpdatedAt.After(rec.CreatedAt))

	rec, err = m.Update(ctx, "1", application.Fields{Notes: ptr("follow up")})
	require.NoError(t, err)
	assert.True(t, rec.UpdatedAt.After(rec.CreatedAt))
}

func TestManager_CloseFlushes(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Memory: storage.NewMemory(storage.AreaLocal)}
	m := newTestManager(t, store, time.Now())
	_, err := m.Create(ctx, application.Fields{Company: ptr("Acme")})
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, storage.KeyApplications, storage.KeySettings))
	require.NoError(t, m.Close(ctx))

	raw, err := store.Get(ctx, storage.KeyApplications, storage.KeySettings)
	require.NoError(t, err)
	assert.Contains(t, raw, storage.KeyApplications)
	assert.Contains(t, raw, storage.KeySettings)

	store.failing = true
	assert.True(t, errors.Is(m.Close(ctx), storage.ErrUnavailable))
}
