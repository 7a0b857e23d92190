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
	_ "time/tzdata"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"student-form-backend/config"
	"student-form-backend/internal/api"
	"student-form-backend/internal/archive"
	"student-form-backend/internal/db"
	"student-form-backend/internal/forms"
	"student-form-backend/internal/logger"
	"student-form-backend/internal/notification"
	"student-form-backend/internal/render"
	"student-form-backend/internal/store"
	"student-form-backend/internal/web"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log.Info().Str("path", configPath).Msg("configuration loaded")

	loc, err := time.LoadLocation(cfg.Render.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Render.Timezone).Msg("invalid render timezone")
	}

	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	appStore := store.NewGormStore(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var opts []forms.Option

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions, log)
		pool.Start(ctx)
		opts = append(opts, forms.WithNotifier(pool))
		log.Info().Int("workers", cfg.WorkerPool.Size).Msg("admin notifications enabled")
	} else {
		log.Warn().Msg("VAPID keys not configured, admin notifications disabled")
	}

	if cfg.Archive.Enabled {
		archiver, err := archive.New(ctx, &cfg.Archive, log)
		if err != nil {
			log.Error().Err(err).Msg("PDF archive unavailable, continuing without it")
		} else {
			opts = append(opts, forms.WithArchiver(archiver))
		}
	}

	svc := forms.NewService(appStore, render.New(loc), log, opts...)

	router := api.NewRouter(api.RouterConfig{
		Forms:          svc,
		Subscriptions:  appStore,
		WebPush:        webpushOptions,
		Logger:         log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SubmitRate:     rate.Limit(cfg.Server.RateLimitPerSec),
		SubmitBurst:    cfg.Server.RateLimitBurst,
		CacheTTL:       time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	if err := web.Register(router, web.Options{APIBaseURL: cfg.Server.APIBaseURL}); err != nil {
		log.Fatal().Err(err).Msg("failed to load UI")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	waitForShutdown(log, server, cancel)
}

func waitForShutdown(log zerolog.Logger, server *http.Server, stopWorkers context.CancelFunc) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server Shutdown")
	}
	stopWorkers()

	log.Info().Msg("server gracefully stopped")
}
