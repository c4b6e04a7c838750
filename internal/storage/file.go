package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// File is a Store kept as one JSON object on disk. A write lands in a temp
// file that is renamed over the old one, so a failed write leaves the
// previous document and the in-memory copy intact.
type File struct {
	path string
	area string

	mu   sync.RWMutex
	data map[string]json.RawMessage

	changes broadcaster
}

func OpenFile(path, area string) (*File, error) {
	if area == "" {
		area = AreaLocal
	}
	f := &File{path: path, area: area, data: map[string]json.RawMessage{}}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open store file: %w", err)
	}
	if len(b) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(b, &f.data); err != nil {
		return nil, fmt.Errorf("parse store file %s: %w", path, err)
	}
	return f, nil
}

func (f *File) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := f.data[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (f *File) Set(ctx context.Context, items map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for k, v := range items {
		if !json.Valid(v) {
			return fmt.Errorf("value for %s is not JSON", k)
		}
	}

	f.mu.Lock()
	next := f.copyData()
	for k, v := range items {
		next[k] = append(json.RawMessage(nil), v...)
	}
	if err := f.write(next); err != nil {
		f.mu.Unlock()
		return err
	}
	f.data = next
	f.mu.Unlock()

	keys := keysOf(items)
	sort.Strings(keys)
	f.changes.publish(Change{Area: f.area, Keys: keys})
	return nil
}

func (f *File) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	next := f.copyData()
	removed := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := next[k]; ok {
			delete(next, k)
			removed = append(removed, k)
		}
	}
	if len(removed) == 0 {
		f.mu.Unlock()
		return nil
	}
	if err := f.write(next); err != nil {
		f.mu.Unlock()
		return err
	}
	f.data = next
	f.mu.Unlock()

	f.changes.publish(Change{Area: f.area, Keys: removed})
	return nil
}

func (f *File) Subscribe() (<-chan Change, func()) {
	return f.changes.subscribe()
}

func (f *File) copyData() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(f.data)+1)
	for k, v := range f.data {
		out[k] = v
	}
	return out
}

func (f *File) write(data map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
