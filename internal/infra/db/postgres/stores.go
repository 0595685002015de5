package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
)

// IdempotencyStore keeps command results; rows older than TTL are ignored
// and purged lazily.
type IdempotencyStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewIdempotencyStore(pool *pgxpool.Pool, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{pool: pool, ttl: ttl}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	rec := middleware.IdempotencyRecord{Key: key}
	var created time.Time
	err := s.pool.QueryRow(ctx, `SELECT payload, occurred_at, created_at FROM app_idempotency WHERE key = $1`, key).
		Scan(&rec.Payload, &rec.OccurredAt, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	if s.ttl > 0 && time.Since(created) > s.ttl {
		_, err := s.pool.Exec(ctx, `DELETE FROM app_idempotency WHERE key = $1`, key)
		return middleware.IdempotencyRecord{}, false, err
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO app_idempotency (key, payload, occurred_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, occurred_at = EXCLUDED.occurred_at, created_at = now()`,
		rec.Key, rec.Payload, rec.OccurredAt)
	return err
}

// InboxStore dedupes consumed events per consumer.
type InboxStore struct {
	pool     *pgxpool.Pool
	consumer string
}

func NewInboxStore(pool *pgxpool.Pool, consumer string) *InboxStore {
	return &InboxStore{pool: pool, consumer: consumer}
}

func (s *InboxStore) Seen(ctx context.Context, eventID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `INSERT INTO app_inbox (event_id, consumer) VALUES ($1, $2) ON CONFLICT DO NOTHING`, eventID, s.consumer)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 0, nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
