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

	"autodialer-platform/internal/auth"
	"autodialer-platform/internal/config"
	"autodialer-platform/internal/dialer"
	"autodialer-platform/internal/ledger"
	"autodialer-platform/internal/telephony"
	"autodialer-platform/pkg/logger"
	"autodialer-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	opts := dialer.Options{
		FromNumber:        cfg.Twilio.PhoneNumber,
		VoiceURL:          cfg.VoiceURL,
		StatusCallbackURL: cfg.StatusCallbackURL(),
		BatchConcurrency:  cfg.Dial.BatchConcurrency,
		Logger:            log,
	}

	// Terminal records survive restarts only when Postgres is configured.
	if cfg.ArchiveEnabled() {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		opts.Archiver = ledger.NewPostgresArchive(db)
	}

	// The Redis cap bounds in-flight provider calls across the process.
	if cfg.CapEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		opts.Limiter = dialer.NewRedisLimiter(rdb, "dial:inflight", cfg.Dial.MaxInFlight, 0)
	}

	var provider telephony.Provider
	if tw := telephony.NewTwilioProvider(cfg.Twilio); tw.Configured() {
		provider = tw
	} else {
		log.Warn("twilio not configured; dispatch attempts will be recorded as failed")
	}

	dialerService := dialer.NewService(ledger.NewLedger(), provider, opts)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, authManager, dialerService)

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
