package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"job-tracker/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultSessionTTL = time.Hour

// Redis keeps the session area. Every key expires after ttl so pending
// notification correlations never outlive the session.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger

	warnedUnavailable atomic.Bool
	changes           broadcaster
}

func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "6379"
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: cfg.Password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, session store falls back", zap.Error(err))
		_ = client.Close()
		return &Redis{prefix: AreaSession + ":", ttl: ttl, logger: logger}
	}
	return NewRedisClient(client, ttl, logger)
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Redis{client: client, prefix: AreaSession + ":", ttl: ttl, logger: logger}
}

func (r *Redis) Available() bool {
	return r != nil && r.client != nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("redis error, session store degraded", zap.Error(err))
	}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

func (r *Redis) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if !r.Available() {
		return nil, ErrUnavailable
	}
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	vals, err := r.client.MGet(ctx, full...).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return nil, fmt.Errorf("redis get: %w", err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i]] = []byte(s)
	}
	return out, nil
}

func (r *Redis) Set(ctx context.Context, items map[string][]byte) error {
	if !r.Available() {
		return ErrUnavailable
	}
	if len(items) == 0 {
		return nil
	}
	keys := keysOf(items)
	sort.Strings(keys)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Set(ctx, r.key(k), items[k], r.ttl)
		}
		return nil
	})
	if err != nil {
		r.warnUnavailableOnce(err)
		return fmt.Errorf("redis set: %w", err)
	}
	r.changes.publish(Change{Area: AreaSession, Keys: keys})
	return nil
}

func (r *Redis) Remove(ctx context.Context, keys ...string) error {
	if !r.Available() {
		return ErrUnavailable
	}
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		r.warnUnavailableOnce(err)
		return fmt.Errorf("redis remove: %w", err)
	}
	r.changes.publish(Change{Area: AreaSession, Keys: append([]string(nil), keys...)})
	return nil
}

func (r *Redis) Subscribe() (<-chan Change, func()) {
	return r.changes.subscribe()
}

// Close releases the client.
func (r *Redis) Close() error {
	if !r.Available() {
		return nil
	}
	return r.client.Close()
}
