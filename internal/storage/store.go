package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

const (
	AreaLocal   = "local"
	AreaSession = "session"

	KeyApplications = "applications"
	KeySettings     = "settings"
)

var ErrUnavailable = errors.New("storage unavailable")

// Change is published after a successful Set or Remove.
type Change struct {
	Area string
	Keys []string
}

// Store is an asynchronous key/value store holding JSON values. Keys that
// are absent are simply missing from the map Get returns.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, items map[string][]byte) error
	Remove(ctx context.Context, keys ...string) error
	Subscribe() (<-chan Change, func())
}

// GetJSON decodes key into out. It reports false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	m, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	b, ok := m[key]
	if !ok || len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, map[string][]byte{key: b})
}

// broadcaster fans Change events out to subscribers. Slow subscribers miss
// events rather than block writers.
type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Change
}

func (b *broadcaster) subscribe() (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = map[int]chan Change{}
	}
	id := b.next
	b.next++
	ch := make(chan Change, 16)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *broadcaster) publish(c Change) {
	if len(c.Keys) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		keys := append([]string(nil), c.Keys...)
		select {
		case ch <- Change{Area: c.Area, Keys: keys}:
		default:
		}
	}
}

func keysOf(items map[string][]byte) []string {
	out := make([]string, 0, len(items))
	for k := range items {
		out = append(out, k)
	}
	return out
}
