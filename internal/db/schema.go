package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS payment_attempts (
	payment_id      TEXT PRIMARY KEY,
	order_id        TEXT NOT NULL,
	registration_id TEXT NOT NULL,
	event_id        TEXT NOT NULL,
	user_id         TEXT NOT NULL DEFAULT '',
	amount          NUMERIC(12, 2) NOT NULL,
	currency        TEXT NOT NULL DEFAULT 'INR',
	status          TEXT NOT NULL,
	detail          TEXT NOT NULL DEFAULT '',
	checks          INT NOT NULL DEFAULT 0,
	next_check_at   TIMESTAMPTZ,
	locked_at       TIMESTAMPTZ,
	locked_by       TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS payment_attempts_due_idx
	ON payment_attempts (status, next_check_at, updated_at);

CREATE INDEX IF NOT EXISTS payment_attempts_registration_idx
	ON payment_attempts (registration_id);
`

// EnsureSchema creates the ledger table when it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
