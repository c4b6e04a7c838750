package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Store. It backs tests and the CLI when no
// database is configured.
type Memory struct {
	area string

	mu   sync.RWMutex
	data map[string][]byte

	changes broadcaster
}

func NewMemory(area string) *Memory {
	if area == "" {
		area = AreaLocal
	}
	return &Memory{area: area, data: map[string][]byte{}}
}

func (m *Memory) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *Memory) Set(ctx context.Context, items map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	m.mu.Lock()
	for k, v := range items {
		m.data[k] = append([]byte(nil), v...)
	}
	m.mu.Unlock()

	keys := keysOf(items)
	sort.Strings(keys)
	m.changes.publish(Change{Area: m.area, Keys: keys})
	return nil
}

func (m *Memory) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	removed := make([]string, 0, len(keys))
	m.mu.Lock()
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			removed = append(removed, k)
		}
	}
	m.mu.Unlock()

	m.changes.publish(Change{Area: m.area, Keys: removed})
	return nil
}

func (m *Memory) Subscribe() (<-chan Change, func()) {
	return m.changes.subscribe()
}

// Keys lists the stored keys with the given prefix, sorted.
func (m *Memory) Keys(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0)
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
