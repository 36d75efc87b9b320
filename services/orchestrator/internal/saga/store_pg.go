package saga

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists sagas in postgres. Items and completed steps are stored
// as jsonb alongside the indexed columns used for lookups and sweeps.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PGStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sagas (
			order_id        TEXT PRIMARY KEY,
			customer_id     TEXT NOT NULL,
			items           JSONB NOT NULL,
			total_cents     BIGINT NOT NULL,
			state           TEXT NOT NULL,
			steps_completed JSONB NOT NULL DEFAULT '[]',
			payment_id      TEXT NOT NULL DEFAULT '',
			reservation_id  TEXT NOT NULL DEFAULT '',
			failure_reason  TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL,
			timeout_at      TIMESTAMPTZ NOT NULL,
			completed_at    TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS sagas_state_idx ON sagas (state);
	`)
	if err != nil {
		return fmt.Errorf("ensure saga schema: %w", err)
	}
	return nil
}

const sagaColumns = `order_id, customer_id, items, total_cents, state, steps_completed,
	payment_id, reservation_id, failure_reason, created_at, updated_at, timeout_at, completed_at`

func (s *PGStore) Get(ctx context.Context, orderID string) (*Saga, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sagaColumns+` FROM sagas WHERE order_id = $1`, orderID)
	saga, err := scanSaga(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return saga, err
}

func (s *PGStore) Put(ctx context.Context, saga *Saga) error {
	items, err := json.Marshal(saga.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	steps, err := json.Marshal(saga.StepsCompleted)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sagas (`+sagaColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (order_id) DO UPDATE SET
			state = EXCLUDED.state,
			steps_completed = EXCLUDED.steps_completed,
			payment_id = EXCLUDED.payment_id,
			reservation_id = EXCLUDED.reservation_id,
			failure_reason = EXCLUDED.failure_reason,
			updated_at = EXCLUDED.updated_at,
			timeout_at = EXCLUDED.timeout_at,
			completed_at = EXCLUDED.completed_at`,
		saga.OrderID, saga.CustomerID, items, saga.TotalCents, string(saga.State), steps,
		saga.PaymentID, saga.ReservationID, saga.FailureReason,
		saga.CreatedAt, saga.UpdatedAt, saga.TimeoutAt, saga.CompletedAt)
	if err != nil {
		return fmt.Errorf("upsert saga %s: %w", saga.OrderID, err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context) ([]*Saga, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+sagaColumns+` FROM sagas ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSagas(rows)
}

func (s *PGStore) ByState(ctx context.Context, state State) ([]*Saga, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sagaColumns+` FROM sagas WHERE state = $1 ORDER BY created_at`, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSagas(rows)
}

func (s *PGStore) Close() {
	s.pool.Close()
}

func scanSagas(rows pgx.Rows) ([]*Saga, error) {
	var out []*Saga
	for rows.Next() {
		saga, err := scanSaga(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, saga)
	}
	return out, rows.Err()
}

func scanSaga(row pgx.Row) (*Saga, error) {
	var (
		saga         Saga
		state        string
		items, steps []byte
	)
	err := row.Scan(&saga.OrderID, &saga.CustomerID, &items, &saga.TotalCents, &state, &steps,
		&saga.PaymentID, &saga.ReservationID, &saga.FailureReason,
		&saga.CreatedAt, &saga.UpdatedAt, &saga.TimeoutAt, &saga.CompletedAt)
	if err != nil {
		return nil, err
	}
	saga.State = State(state)
	if err := json.Unmarshal(items, &saga.Items); err != nil {
		return nil, fmt.Errorf("decode items for %s: %w", saga.OrderID, err)
	}
	if err := json.Unmarshal(steps, &saga.StepsCompleted); err != nil {
		return nil, fmt.Errorf("decode steps for %s: %w", saga.OrderID, err)
	}
	return &saga, nil
}
