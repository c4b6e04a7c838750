package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"job-tracker/internal/database"
)

// Postgres keeps one area of the key/value store in the kv_store table.
// Values are JSON and stored as jsonb.
type Postgres struct {
	db   database.DB
	area string

	changes broadcaster
}

func NewPostgres(db database.DB, area string) *Postgres {
	if area == "" {
		area = AreaLocal
	}
	return &Postgres{db: db, area: area}
}

func (p *Postgres) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if p == nil || p.db == nil {
		return nil, fmt.Errorf("%w: nil db", ErrUnavailable)
	}
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := p.db.Query(ctx,
		`SELECT key, value FROM kv_store WHERE area = $1 AND key = ANY($2)`,
		p.area, keys,
	)
	if err != nil {
		return nil, fmt.Errorf("kv get: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k string
			v []byte
		)
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("kv get scan: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kv get: %w", err)
	}
	return out, nil
}

// Set writes every item in one transaction; either all keys change or none.
func (p *Postgres) Set(ctx context.Context, items map[string][]byte) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("%w: nil db", ErrUnavailable)
	}
	if len(items) == 0 {
		return nil
	}
	keys := keysOf(items)
	sort.Strings(keys)

	now := time.Now().UTC()
	err := database.WithTx(ctx, p.db, func(tx database.Tx) error {
		for _, k := range keys {
			_, err := tx.Exec(ctx,
				`INSERT INTO kv_store (area, key, value, updated_at) VALUES ($1, $2, $3, $4)
				 ON CONFLICT (area, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
				p.area, k, items[k], now,
			)
			if err != nil {
				return fmt.Errorf("kv set %s: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.changes.publish(Change{Area: p.area, Keys: keys})
	return nil
}

func (p *Postgres) Remove(ctx context.Context, keys ...string) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("%w: nil db", ErrUnavailable)
	}
	if len(keys) == 0 {
		return nil
	}
	n, err := p.db.Exec(ctx, `DELETE FROM kv_store WHERE area = $1 AND key = ANY($2)`, p.area, keys)
	if err != nil {
		return fmt.Errorf("kv remove: %w", err)
	}
	if n > 0 {
		p.changes.publish(Change{Area: p.area, Keys: append([]string(nil), keys...)})
	}
	return nil
}

func (p *Postgres) Subscribe() (<-chan Change, func()) {
	return p.changes.subscribe()
}
