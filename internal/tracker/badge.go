package tracker

import (
	"context"
	"encoding/json"
	"slices"

	"job-tracker/internal/domain/application"
	"job-tracker/internal/storage"

	"go.uber.org/zap"
)

// WatchBadge publishes the active-application count once at start and again
// whenever the applications key changes. It returns when ctx ends.
func WatchBadge(ctx context.Context, store storage.Store, publish func(count int), logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	changes, cancel := store.Subscribe()
	defer cancel()

	last := -1
	refresh := func() {
		n, err := countActive(ctx, store)
		if err != nil {
			logger.Warn("badge refresh failed", zap.Error(err))
			return
		}
		if n == last {
			return
		}
		last = n
		publish(n)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if slices.Contains(c.Keys, storage.KeyApplications) {
				refresh()
			}
		}
	}
}

func countActive(ctx context.Context, store storage.Store) (int, error) {
	raw, err := store.Get(ctx, storage.KeyApplications)
	if err != nil {
		return 0, err
	}
	b, ok := raw[storage.KeyApplications]
	if !ok || len(b) == 0 {
		return 0, nil
	}
	var records []application.Record
	if err := json.Unmarshal(b, &records); err != nil {
		return 0, err
	}
	return ActiveCount(records), nil
}
