package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/regportal/internal/auth"
	"github.com/geocoder89/regportal/internal/badge"
	"github.com/geocoder89/regportal/internal/config"
	"github.com/geocoder89/regportal/internal/db"
	"github.com/geocoder89/regportal/internal/gateway"
	httpx "github.com/geocoder89/regportal/internal/http"
	"github.com/geocoder89/regportal/internal/http/handlers"
	"github.com/geocoder89/regportal/internal/notifications"
	"github.com/geocoder89/regportal/internal/observability"
	"github.com/geocoder89/regportal/internal/payment"
	"github.com/geocoder89/regportal/internal/repo/memory"
	"github.com/geocoder89/regportal/internal/repo/postgres"
	"github.com/geocoder89/regportal/internal/repo/redisstore"
	"github.com/geocoder89/regportal/internal/wizard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	shutdownTracer, err := observability.InitTracer(context.Background(), "regportal-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	backend := gateway.New(cfg.APIBaseURL, gateway.WithLogger(log), gateway.WithMetrics(prom))

	var checks []handlers.Check

	// drafts: redis when configured so several API replicas share them
	var drafts wizard.DraftStore
	if cfg.RedisAddr != "" {
		rc := redisstore.New(redisstore.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
		defer rc.Close()

		drafts = redisstore.NewDraftsRepo(rc, cfg.DraftTTL)
		checks = append(checks, handlers.Check{Name: "redis", Ping: rc.Ping})
	} else {
		mem := memory.NewDraftsRepo(cfg.DraftTTL)
		drafts = mem
		go sweepDrafts(mem)
		log.Warn("REDIS_ADDR not set, drafts are kept in process memory")
	}

	var ledger payment.Ledger
	if cfg.DBURL != "" {
		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		ctx, cancel := config.WithTimeout(10 * time.Second)
		err = db.EnsureSchema(ctx, pool)
		cancel()
		if err != nil {
			log.Error("schema setup failed", "err", err)
			os.Exit(1)
		}

		attempts := postgres.NewPaymentAttemptsRepo(pool, prom)
		ledger = attempts
		checks = append(checks, handlers.Check{Name: "postgres", Ping: attempts.Ping})
	}

	_, sharer := notifications.Setup(notifications.EmailConfig{
		Host:         cfg.SMTPHost,
		Port:         cfg.SMTPPort,
		User:         cfg.SMTPUser,
		Pass:         cfg.SMTPPass,
		Sender:       cfg.SMTPSender,
		SupportEmail: cfg.SupportEmail,
	}, cfg.SMTPEnabled(), log)

	controller := wizard.NewController(drafts, backend, backend, log)

	router := httpx.NewRouter(httpx.Deps{
		Env:            cfg.Env,
		Log:            log,
		Prom:           prom,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AllowedOrigins: cfg.AllowedOrigins,
		PublicBaseURL:  cfg.PublicBaseURL,
		Verifier:       auth.NewVerifier(cfg.JWTSecret),
		Events:         backend,
		Accounts:       backend,
		Resolver:       wizard.NewResolver(backend, backend, controller),
		Drafts:         controller,
		Confirmer:      wizard.NewConfirmer(controller, backend, log),
		Payments:       payment.NewFlow(backend, ledger, prom, log),
		Regs:           backend,
		Badges:         badge.NewService(sharer, log),
		Checks:         checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "backend", cfg.APIBaseURL)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	ctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
	if err := shutdownTracer(ctx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
}

func sweepDrafts(repo *memory.DraftsRepo) {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()

	for range t.C {
		repo.Sweep()
	}
}
