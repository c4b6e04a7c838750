package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"job-tracker/internal/domain/application"
	"job-tracker/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("application not found")

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now for stamping records.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// Manager is the single owner of the application collection and the
// settings. Every mutation is persisted before the in-memory copy changes,
// so a failed write leaves both untouched.
type Manager struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	mu       sync.RWMutex
	records  []application.Record
	settings application.Settings
}

func NewManager(store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		records:  []application.Record{},
		settings: application.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Hydrate loads the collection and settings from the store. Missing
// settings are written back as the defaults.
func (m *Manager) Hydrate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.store.Get(ctx, storage.KeyApplications, storage.KeySettings)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}

	records := []application.Record{}
	if b, ok := raw[storage.KeyApplications]; ok && len(b) > 0 {
		if err := json.Unmarshal(b, &records); err != nil {
			return fmt.Errorf("hydrate applications: %w", err)
		}
	}
	for i := range records {
		if records[i].Skills == nil {
			records[i].Skills = []string{}
		}
	}

	settings := application.DefaultSettings()
	if b, ok := raw[storage.KeySettings]; ok && len(b) > 0 {
		if err := json.Unmarshal(b, &settings); err != nil {
			return fmt.Errorf("hydrate settings: %w", err)
		}
	} else {
		if err := storage.SetJSON(ctx, m.store, storage.KeySettings, settings); err != nil {
			return fmt.Errorf("write default settings: %w", err)
		}
		m.logger.Info("settings initialized with defaults")
	}

	m.records = records
	m.settings = settings
	m.logger.Debug("tracker hydrated", zap.Int("applications", len(records)))
	return nil
}

// stamp returns the current time, moved forward when needed so it is
// strictly after prev.
func (m *Manager) stamp(prev time.Time) time.Time {
	t := m.now().UTC().Truncate(time.Millisecond)
	if !t.After(prev) {
		t = prev.Add(time.Millisecond)
	}
	return t
}

// touch restamps r.UpdatedAt so it is after both the previous update and
// the creation time.
func (m *Manager) touch(r *application.Record) {
	prev := r.UpdatedAt
	if r.CreatedAt.After(prev) {
		prev = r.CreatedAt
	}
	r.UpdatedAt = m.stamp(prev)
}

func (m *Manager) today() string {
	return m.now().Format(application.DateLayout)
}

// Create prepends a new record. Status defaults to applied and the
// application date to today.
func (m *Manager) Create(ctx context.Context, f application.Fields) (application.Record, error) {
	if err := f.Validate(); err != nil {
		return application.Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := application.Record{
		ID:     m.newID(),
		Status: application.StatusApplied,
		Skills: []string{},
	}
	f.Apply(&rec)
	if rec.Status == "" {
		rec.Status = application.StatusApplied
	}
	if rec.DateApplied == "" {
		rec.DateApplied = m.today()
	}
	now := m.stamp(time.Time{})
	rec.CreatedAt = now
	rec.UpdatedAt = now

	next := make([]application.Record, 0, len(m.records)+1)
	next = append(next, rec)
	next = append(next, m.records...)

	if err := m.persist(ctx, next); err != nil {
		return application.Record{}, err
	}
	m.records = next
	m.logger.Info("application created",
		zap.String("id", rec.ID),
		zap.String("company", rec.Company),
		zap.String("position", rec.Position),
	)
	return rec.Clone(), nil
}

func (m *Manager) Update(ctx context.Context, id string, f application.Fields) (application.Record, error) {
	if err := f.Validate(); err != nil {
		return application.Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return application.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := m.cloneRecords()
	f.Apply(&next[i])
	m.touch(&next[i])

	if err := m.persist(ctx, next); err != nil {
		return application.Record{}, err
	}
	m.records = next
	m.logger.Debug("application updated", zap.String("id", id))
	return next[i].Clone(), nil
}

// Delete reports whether a record was removed.
func (m *Manager) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}
	next := make([]application.Record, 0, len(m.records)-1)
	next = append(next, m.records[:i]...)
	next = append(next, m.records[i+1:]...)

	if err := m.persist(ctx, next); err != nil {
		return false, err
	}
	m.records = next
	m.logger.Info("application deleted", zap.String("id", id))
	return true, nil
}

func (m *Manager) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := []application.Record{}
	if err := m.persist(ctx, next); err != nil {
		return err
	}
	n := len(m.records)
	m.records = next
	m.logger.Info("applications cleared", zap.Int("removed", n))
	return nil
}

// CycleStatus advances the record's status one step. The bool is false,
// and nothing changes, when id is unknown.
func (m *Manager) CycleStatus(ctx context.Context, id string) (application.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return application.Record{}, false, nil
	}
	next := m.cloneRecords()
	next[i].Status = next[i].Status.Next()
	m.touch(&next[i])

	if err := m.persist(ctx, next); err != nil {
		return application.Record{}, false, err
	}
	m.records = next
	return next[i].Clone(), true, nil
}

func (m *Manager) Get(id string) (application.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return application.Record{}, false
	}
	return m.records[i].Clone(), true
}

// Filter narrows List. Query matches company or position, case-insensitive;
// an empty Status or "all" matches every status.
type Filter struct {
	Query  string
	Status string
}

func (f Filter) match(r application.Record) bool {
	st := strings.ToLower(strings.TrimSpace(f.Status))
	if st != "" && st != "all" && string(r.Status) != st {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Company), q) || strings.Contains(strings.ToLower(r.Position), q)
}

// List returns matching records, most recent first.
func (m *Manager) List(f Filter) []application.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]application.Record, 0, len(m.records))
	for _, r := range m.records {
		if f.match(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

type Stats struct {
	Total     int `json:"total"`
	Applied   int `json:"applied"`
	Interview int `json:"interview"`
	Offer     int `json:"offer"`
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{Total: len(m.records)}
	for _, r := range m.records {
		switch r.Status {
		case application.StatusApplied:
			s.Applied++
		case application.StatusInterview:
			s.Interview++
		case application.StatusOffer:
			s.Offer++
		}
	}
	return s
}

// ActiveCount is the badge number: records in applied or interview.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ActiveCount(m.records)
}

func ActiveCount(records []application.Record) int {
	n := 0
	for _, r := range records {
		if r.Status.Active() {
			n++
		}
	}
	return n
}

func (m *Manager) Settings() application.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

func (m *Manager) SaveSettings(ctx context.Context, s application.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := storage.SetJSON(ctx, m.store, storage.KeySettings, s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	m.settings = s
	return nil
}

// Replace swaps the whole collection, and the settings when given, in one
// store write.
func (m *Manager) Replace(ctx context.Context, records []application.Record, settings *application.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]application.Record, 0, len(records))
	for _, r := range records {
		next = append(next, r.Clone())
	}
	items, err := encodeRecords(next)
	if err != nil {
		return err
	}
	if settings != nil {
		b, err := json.Marshal(settings)
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}
		items[storage.KeySettings] = b
	}
	if err := m.store.Set(ctx, items); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	m.records = next
	if settings != nil {
		m.settings = *settings
	}
	return nil
}

// Close flushes the current state to the store.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, err := encodeRecords(m.records)
	if err != nil {
		return err
	}
	b, err := json.Marshal(m.settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	items[storage.KeySettings] = b
	if err := m.store.Set(ctx, items); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (m *Manager) persist(ctx context.Context, records []application.Record) error {
	items, err := encodeRecords(records)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, items); err != nil {
		m.logger.Warn("persist applications failed", zap.Error(err))
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

func encodeRecords(records []application.Record) (map[string][]byte, error) {
	if records == nil {
		records = []application.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode applications: %w", err)
	}
	return map[string][]byte{storage.KeyApplications: b}, nil
}

func (m *Manager) indexOf(id string) int {
	for i := range m.records {
		if m.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) cloneRecords() []application.Record {
	out := make([]application.Record, len(m.records))
	for i, r := range m.records {
		out[i] = r.Clone()
	}
	return out
}
