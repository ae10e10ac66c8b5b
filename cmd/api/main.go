package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outdial/internal/audit"
	"outdial/internal/auth"
	"outdial/internal/callrecords"
	"outdial/internal/config"
	"outdial/internal/convo"
	"outdial/internal/dispatch"
	"outdial/internal/httpapi"
	"outdial/internal/leads"
	"outdial/internal/queue"
	"outdial/internal/reporting"
	"outdial/internal/telephony"
	"outdial/pkg/logger"
	"outdial/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// .env is a local-dev convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Wiring: storage -> services -> dispatcher -> HTTP.
	leadStore := leads.NewPostgresStore(db)
	records := callrecords.NewPostgresRepo(db)
	queues := queue.NewService(queue.NewPostgresRepo(db), leadStore)
	auditSvc := audit.NewService(audit.NewMemoryRepo())
	dialer := telephony.NewTwilioDialer(cfg, log)

	dispatcher := dispatch.New(dispatch.Deps{
		Queues:  queues,
		Records: records,
		Dialer:  dialer,
		Leads:   leadStore,
		Audit:   auditSvc,
		Caps:    dispatch.NewRedisCallCapper(rdb, cfg.Dialer.MaxConcurrentCallsPerUser, time.Hour),
		Logger:  log,
	})

	handlers := httpapi.Handlers{
		Auth:       authManager,
		Queues:     queues,
		Dispatcher: dispatcher,
		Records:    records,
		Convo:      convo.NewService(records, leadStore, rdb, log),
		Reporting:  reporting.NewService(records),
	}
	webhooks := telephony.NewWebhookHandler(dispatcher, cfg.Twilio.StreamURL)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, webhooks, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
