package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geocoder89/regportal/internal/config"
	"github.com/geocoder89/regportal/internal/db"
	"github.com/geocoder89/regportal/internal/gateway"
	"github.com/geocoder89/regportal/internal/notifications"
	"github.com/geocoder89/regportal/internal/observability"
	"github.com/geocoder89/regportal/internal/reconcile"
	"github.com/geocoder89/regportal/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env).With("component", "reconcile")

	if cfg.DBURL == "" || cfg.ServiceToken == "" {
		log.Error("DATABASE_URL and SERVICE_TOKEN are required for the reconcile worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "regportal-worker", cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	pool, err := db.NewPool(cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Error("schema setup failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)
	attempts := postgres.NewPaymentAttemptsRepo(pool, prom)
	backend := gateway.New(cfg.APIBaseURL, gateway.WithLogger(log), gateway.WithMetrics(prom))

	notifier, _ := notifications.Setup(notifications.EmailConfig{
		Host:         cfg.SMTPHost,
		Port:         cfg.SMTPPort,
		User:         cfg.SMTPUser,
		Pass:         cfg.SMTPPass,
		Sender:       cfg.SMTPSender,
		SupportEmail: cfg.SupportEmail,
	}, cfg.SMTPEnabled(), log)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := reconcile.New(reconcile.Config{
		WorkerID:     workerID,
		PollInterval: cfg.ReconcilePoll,
		Grace:        cfg.ReconcileGrace,
		MaxChecks:    cfg.ReconcileMaxAttempts,
		ServiceToken: cfg.ServiceToken,
	}, attempts, backend, notifier, observability.NewReconcileStats(), prom, log)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(attempts, notifier),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", workerID)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
