package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/regportal/internal/domain/payment"
	"github.com/geocoder89/regportal/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentAttemptsRepo is the portal's own record of payment attempts.
// It never holds the source of truth for isPaid; the backend does.
type PaymentAttemptsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPaymentAttemptsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PaymentAttemptsRepo {
	return &PaymentAttemptsRepo{pool: pool, prom: prom}
}

func (r *PaymentAttemptsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const attemptColumns = `
	payment_id, order_id, registration_id, event_id, user_id,
	amount, currency, status, detail, checks,
	next_check_at, locked_by, created_at, updated_at`

func scanAttempt(row pgx.Row) (payment.Attempt, error) {
	var a payment.Attempt
	var status string

	err := row.Scan(
		&a.PaymentID, &a.OrderID, &a.RegistrationID, &a.EventID, &a.UserID,
		&a.Amount, &a.Currency, &status, &a.Detail, &a.Checks,
		&a.NextCheckAt, &a.LockedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return payment.Attempt{}, err
	}

	a.Status = payment.Status(status)
	return a, nil
}

// RecordInitiated stores a freshly created order. Re-recording the same
// payment id resets it to initiated.
func (r *PaymentAttemptsRepo) RecordInitiated(ctx context.Context, a payment.Attempt) error {
	return r.observe("payment_attempts.record_initiated", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_attempts (
			payment_id, order_id, registration_id, event_id, user_id,
			amount, currency, status, detail, checks, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 'initiated', '', 0, NOW(), NOW())
		ON CONFLICT (payment_id) DO UPDATE
		SET order_id = EXCLUDED.order_id,
		    amount = EXCLUDED.amount,
		    currency = EXCLUDED.currency,
		    status = 'initiated',
		    detail = '',
		    checks = 0,
		    next_check_at = NULL,
		    updated_at = NOW()
		WHERE payment_attempts.registration_id = EXCLUDED.registration_id
		  AND payment_attempts.status = 'initiated'
	`, a.PaymentID, a.OrderID, a.RegistrationID, a.EventID, a.UserID, a.Amount, a.Currency)
		return err
	})
}

// RecordOutcome stores the verify result of an initiated attempt belonging to
// registrationID. Settled attempts are never rewritten. Error outcomes become
// eligible for reconciliation once the grace period has passed.
func (r *PaymentAttemptsRepo) RecordOutcome(ctx context.Context, registrationID, paymentID string, status payment.Status, detail string) error {
	var tag pgconn.CommandTag

	err := r.observe("payment_attempts.record_outcome", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
		UPDATE payment_attempts
		SET status = $2,
		    detail = $3,
		    checks = 0,
		    next_check_at = NULL,
		    updated_at = NOW()
		WHERE payment_id = $1
		  AND registration_id = $4
		  AND status = 'initiated'
	`, paymentID, string(status), detail, registrationID)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrAttemptNotFound
	}
	return nil
}

func (r *PaymentAttemptsRepo) Get(ctx context.Context, paymentID string) (payment.Attempt, error) {
	var a payment.Attempt

	err := r.observe("payment_attempts.get", func() error {
		var err error
		a, err = scanAttempt(r.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM payment_attempts WHERE payment_id = $1`, paymentID))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return payment.Attempt{}, payment.ErrAttemptNotFound
	}
	return a, err
}

// ClaimDue locks the oldest error attempt that is due for a check.
// Returns payment.ErrAttemptNotFound when nothing is due.
func (r *PaymentAttemptsRepo) ClaimDue(ctx context.Context, workerID string, grace time.Duration) (payment.Attempt, error) {
	var a payment.Attempt
	secs := int64(grace.Seconds())

	err := r.observe("payment_attempts.claim_due", func() error {
		var err error
		a, err = scanAttempt(r.pool.QueryRow(ctx, `
		WITH next AS (
			SELECT payment_id
			FROM payment_attempts
			WHERE status = 'error'
			  AND locked_by IS NULL
			  AND (
			        (next_check_at IS NULL AND updated_at <= NOW() - ($2 * INTERVAL '1 second'))
			     OR next_check_at <= NOW()
			  )
			ORDER BY updated_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE payment_attempts
		SET locked_at = NOW(),
		    locked_by = $1
		WHERE payment_id = (SELECT payment_id FROM next)
		RETURNING `+attemptColumns, workerID, secs))
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return payment.Attempt{}, payment.ErrAttemptNotFound
	}
	return a, err
}

func (r *PaymentAttemptsRepo) settle(ctx context.Context, op, paymentID string, status payment.Status, detail string) error {
	var tag pgconn.CommandTag

	err := r.observe(op, func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
		UPDATE payment_attempts
		SET status = $2,
		    detail = $3,
		    checks = checks + 1,
		    next_check_at = NULL,
		    locked_at = NULL,
		    locked_by = NULL,
		    updated_at = NOW()
		WHERE payment_id = $1
	`, paymentID, string(status), detail)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrAttemptNotFound
	}
	return nil
}

// MarkReconciled records that the backend now reports the registration paid.
func (r *PaymentAttemptsRepo) MarkReconciled(ctx context.Context, paymentID, detail string) error {
	return r.settle(ctx, "payment_attempts.mark_reconciled", paymentID, payment.StatusReconciledPaid, detail)
}

func (r *PaymentAttemptsRepo) MarkNeedsSupport(ctx context.Context, paymentID, detail string) error {
	return r.settle(ctx, "payment_attempts.mark_needs_support", paymentID, payment.StatusNeedsSupport, detail)
}

// Reschedule releases the lock and sets the next check time.
func (r *PaymentAttemptsRepo) Reschedule(ctx context.Context, paymentID string, next time.Time, detail string) error {
	var tag pgconn.CommandTag

	err := r.observe("payment_attempts.reschedule", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
		UPDATE payment_attempts
		SET checks = checks + 1,
		    next_check_at = $2,
		    detail = $3,
		    locked_at = NULL,
		    locked_by = NULL,
		    updated_at = NOW()
		WHERE payment_id = $1
	`, paymentID, next, detail)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrAttemptNotFound
	}
	return nil
}

// ReleaseStale unlocks attempts whose worker died mid-check.
func (r *PaymentAttemptsRepo) ReleaseStale(ctx context.Context, lockTTL time.Duration) (int64, error) {
	secs := int64(lockTTL.Seconds())
	if secs <= 0 {
		secs = 60
	}

	var rows int64
	err := r.observe("payment_attempts.release_stale", func() error {
		tag, err := r.pool.Exec(ctx, `
		UPDATE payment_attempts
		SET locked_at = NULL,
		    locked_by = NULL
		WHERE locked_by IS NOT NULL
		  AND locked_at < NOW() - ($1 * INTERVAL '1 second')
	`, secs)
		if err != nil {
			return err
		}
		rows = tag.RowsAffected()
		return nil
	})

	return rows, err
}

func (r *PaymentAttemptsRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
