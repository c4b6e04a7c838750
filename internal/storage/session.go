package storage

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// SessionPrefix namespaces session keys when they live in the persistent
// store.
const SessionPrefix = "session:"

// Session is the short-lived area. It uses Redis while Redis answers and
// otherwise keeps keys in the persistent store under SessionPrefix.
type Session struct {
	primary  *Redis
	fallback Store
	logger   *zap.Logger

	changes broadcaster
}

func NewSession(primary *Redis, fallback Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{primary: primary, fallback: fallback, logger: logger}
}

func (s *Session) useRedis() bool {
	return s.primary.Available()
}

// Get reads Redis first. Keys Redis does not hold are looked up in the
// fallback, where a Set lands whenever a Redis write fails.
func (s *Session) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if s.useRedis() {
		m, err := s.primary.Get(ctx, keys...)
		if err == nil {
			missing := make([]string, 0, len(keys))
			for _, k := range keys {
				if _, ok := m[k]; !ok {
					missing = append(missing, k)
				}
			}
			if len(missing) == 0 || s.fallback == nil {
				return m, nil
			}
			rest, err := s.fromFallback(ctx, missing)
			if err != nil {
				s.logger.Debug("session fallback read failed", zap.Error(err))
				return m, nil
			}
			for k, v := range rest {
				m[k] = v
			}
			return m, nil
		}
		s.logger.Debug("session get via redis failed, using fallback", zap.Error(err))
	}
	if s.fallback == nil {
		return nil, ErrUnavailable
	}
	return s.fromFallback(ctx, keys)
}

func (s *Session) fromFallback(ctx context.Context, keys []string) (map[string][]byte, error) {
	m, err := s.fallback.Get(ctx, prefixed(keys)...)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[strings.TrimPrefix(k, SessionPrefix)] = v
	}
	return out, nil
}

func (s *Session) Set(ctx context.Context, items map[string][]byte) error {
	if s.useRedis() {
		err := s.primary.Set(ctx, items)
		if err == nil {
			s.changes.publish(Change{Area: AreaSession, Keys: keysOf(items)})
			return nil
		}
		s.logger.Debug("session set via redis failed, using fallback", zap.Error(err))
	}
	if s.fallback == nil {
		return ErrUnavailable
	}
	p := make(map[string][]byte, len(items))
	for k, v := range items {
		p[SessionPrefix+k] = v
	}
	if err := s.fallback.Set(ctx, p); err != nil {
		return err
	}
	s.changes.publish(Change{Area: AreaSession, Keys: keysOf(items)})
	return nil
}

// Remove clears keys from both places so a Redis outage in between never
// leaves a stale fallback entry behind. It fails only when neither place
// could be cleared.
func (s *Session) Remove(ctx context.Context, keys ...string) error {
	var (
		errs    []error
		removed bool
	)
	if s.useRedis() {
		if err := s.primary.Remove(ctx, keys...); err != nil {
			errs = append(errs, err)
		} else {
			removed = true
		}
	}
	if s.fallback != nil {
		if err := s.fallback.Remove(ctx, prefixed(keys)...); err != nil {
			errs = append(errs, err)
		} else {
			removed = true
		}
	}
	if !removed {
		if len(errs) == 0 {
			return ErrUnavailable
		}
		return errors.Join(errs...)
	}
	s.changes.publish(Change{Area: AreaSession, Keys: append([]string(nil), keys...)})
	return nil
}

func (s *Session) Subscribe() (<-chan Change, func()) {
	return s.changes.subscribe()
}

func prefixed(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = SessionPrefix + k
	}
	return out
}
