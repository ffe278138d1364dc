// Package reconcile re-checks payments whose verification ended in a network
// or unexpected error. It only reads the registration from the backend: it
// never calls verify and never marks anything paid.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/regportal/internal/actorctx"
	"github.com/geocoder89/regportal/internal/domain/payment"
	"github.com/geocoder89/regportal/internal/domain/registration"
	"github.com/geocoder89/regportal/internal/notifications"
	"github.com/geocoder89/regportal/internal/observability"
)

type AttemptsRepository interface {
	ClaimDue(ctx context.Context, workerID string, grace time.Duration) (payment.Attempt, error)
	MarkReconciled(ctx context.Context, paymentID, detail string) error
	MarkNeedsSupport(ctx context.Context, paymentID, detail string) error
	Reschedule(ctx context.Context, paymentID string, next time.Time, detail string) error
	ReleaseStale(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type RegistrationReader interface {
	GetRegistration(ctx context.Context, registrationID string) (registration.Registration, error)
}

type Config struct {
	WorkerID     string
	PollInterval time.Duration
	Grace        time.Duration
	MaxChecks    int
	BackoffBase  time.Duration
	BackoffCap   time.Duration
	LockTTL      time.Duration
	ServiceToken string
}

type Worker struct {
	cfg      Config
	repo     AttemptsRepository
	regs     RegistrationReader
	notifier notifications.Notifier
	stats    *observability.ReconcileStats
	prom     *observability.Prom
	log      *slog.Logger
	now      func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo AttemptsRepository, regs RegistrationReader, notifier notifications.Notifier, stats *observability.ReconcileStats, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxChecks <= 0 {
		cfg.MaxChecks = 6
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Minute
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if stats == nil {
		stats = observability.NewReconcileStats()
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		regs:     regs,
		notifier: notifier,
		stats:    stats,
		prom:     prom,
		log:      log,
		now:      time.Now,
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

func (w *Worker) Stats() observability.ReconcileSnapshot {
	return w.stats.Snapshot()
}

// Run polls until ctx is cancelled. Each tick drains every due attempt.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.setReady(true)
	defer w.setReady(false)

	w.log.Info("reconcile_worker_started", "worker_id", w.cfg.WorkerID, "poll", w.cfg.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			w.log.Info("reconcile_worker_stopping", "worker_id", w.cfg.WorkerID)
			return nil

		case <-ticker.C:
			w.stats.MarkRun(w.now())

			if n, err := w.repo.ReleaseStale(ctx, w.cfg.LockTTL); err != nil {
				w.log.Error("release_stale_failed", "err", err)
			} else if n > 0 {
				w.log.Warn("released_stale_locks", "count", n)
			}

			for {
				processed, err := w.ProcessOne(ctx)
				if err != nil {
					w.log.Error("reconcile_step_failed", "err", err)
					break
				}
				if !processed || ctx.Err() != nil {
					break
				}
			}
		}
	}
}

// ProcessOne claims and checks one due attempt. It reports whether anything was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	a, err := w.repo.ClaimDue(claimCtx, w.cfg.WorkerID, w.cfg.Grace)
	cancel()

	if errors.Is(err, payment.ErrAttemptNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim: %w", err)
	}

	start := w.now()
	result, err := w.check(ctx, a)
	w.stats.IncChecked()
	w.stats.ObserveCheck(w.now().Sub(start))
	if w.prom != nil {
		w.prom.ReconcileResults.WithLabelValues(result).Inc()
	}

	if err != nil {
		w.stats.IncFailure()
		return true, err
	}
	return true, nil
}

// check decides the attempt's fate and returns the result label.
func (w *Worker) check(ctx context.Context, a payment.Attempt) (string, error) {
	log := w.log.With("payment_id", a.PaymentID, "registration_id", a.RegistrationID, "checks", a.Checks)

	readCtx := actorctx.WithAccessToken(ctx, w.cfg.ServiceToken)
	reg, err := w.regs.GetRegistration(readCtx, a.RegistrationID)

	if err == nil && reg.IsPaid {
		if err := w.repo.MarkReconciled(ctx, a.PaymentID, "backend reports registration paid"); err != nil {
			return "error", fmt.Errorf("mark reconciled: %w", err)
		}
		w.stats.IncPaid()
		log.Info("payment_reconciled_paid")
		return "paid", nil
	}

	detail := "backend reports registration unpaid"
	if err != nil {
		detail = "registration lookup failed: " + err.Error()
	}

	if a.Checks+1 >= w.cfg.MaxChecks {
		if err := w.repo.MarkNeedsSupport(ctx, a.PaymentID, detail); err != nil {
			return "error", fmt.Errorf("mark needs support: %w", err)
		}
		w.stats.IncFlagged()
		log.Warn("payment_needs_support", "detail", detail)

		alert := notifications.SupportAlert{
			PaymentID:      a.PaymentID,
			RegistrationID: a.RegistrationID,
			EventID:        a.EventID,
			UserID:         a.UserID,
			Amount:         a.Amount,
			Checks:         a.Checks + 1,
			Detail:         detail,
		}
		if err := w.notifier.NotifySupport(ctx, alert); err != nil {
			// the ledger row is the durable record; the alert is best effort
			log.Error("support_alert_failed", "err", err)
		}
		return "needs_support", nil
	}

	next := w.now().Add(ExponentialBackoff(a.Checks, w.cfg.BackoffBase, w.cfg.BackoffCap))
	if err := w.repo.Reschedule(ctx, a.PaymentID, next, detail); err != nil {
		return "error", fmt.Errorf("reschedule: %w", err)
	}
	w.stats.IncRetried()
	log.Debug("payment_recheck_scheduled", "next_check_at", next)
	return "retry", nil
}
