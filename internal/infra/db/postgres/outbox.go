package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appoutbox "github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	infraoutbox "github.com/AntoS03/ProyectoFinal/internal/infra/outbox"
)

// OutboxStore writes records inside the caller's transaction and serves
// them to the relay worker with FOR UPDATE SKIP LOCKED.
type OutboxStore struct {
	pool *pgxpool.Pool
	// Notify, when set, runs on Flush to wake the relay worker.
	Notify func(ctx context.Context) error
}

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{pool: pool}
}

func (s *OutboxStore) Add(ctx context.Context, rec appoutbox.EventRecord) error {
	headers, err := json.Marshal(rec.Headers)
	if err != nil {
		return err
	}
	_, err = conn(ctx, s.pool).Exec(ctx, `INSERT INTO app_outbox (id, name, payload, occurred_at, aggregate, headers)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Name, rec.Payload, rec.OccurredAt, rec.Aggregate, headers)
	return err
}

func (s *OutboxStore) Flush(ctx context.Context) error {
	if s.Notify == nil {
		return nil
	}
	return s.Notify(ctx)
}

func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	var (
		msg     infraoutbox.Message
		headers []byte
	)
	err := s.pool.QueryRow(ctx, `UPDATE app_outbox SET state = 'CLAIMED', claimed_by = $1, claimed_at = now()
		WHERE id = (
			SELECT id FROM app_outbox
			WHERE state IN ('NEW', 'FAILED') AND next_attempt_at <= now()
			ORDER BY next_attempt_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, name, payload, occurred_at, aggregate, headers, attempts`, workerID).
		Scan(&msg.ID, &msg.Name, &msg.Payload, &msg.OccurredAt, &msg.Aggregate, &headers, &msg.Attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &msg.Headers); err != nil {
			return nil, err
		}
	}
	msg.OccurredAt = msg.OccurredAt.UTC()
	return &msg, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE app_outbox SET state = 'SENT', sent_at = now() WHERE id = $1`, id)
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.pool.Exec(ctx, `UPDATE app_outbox SET state = 'FAILED', next_attempt_at = $2, last_error = $3,
		attempts = attempts + 1 WHERE id = $1`, id, next, errMsg)
	return err
}

var (
	_ appoutbox.Outbox  = (*OutboxStore)(nil)
	_ infraoutbox.Store = (*OutboxStore)(nil)
)
