package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"ppm-tracker-backend/internal/api"
	"ppm-tracker-backend/internal/backup"
	"ppm-tracker-backend/internal/mw"
	"ppm-tracker-backend/internal/notification"
	"ppm-tracker-backend/internal/quarter"
)

const (
	shutdownTimeout = 5 * time.Second
	limiterSweep    = time.Minute
	limiterMaxIdle  = 10 * time.Minute
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and background jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, runServe)
		},
	}
}

func runServe(cmd *cobra.Command, a *app) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg := a.cfg
	log := a.log
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	var (
		webpushOptions *webpush.Options
		pool           *notification.WorkerPool
		dispatcher     notification.Dispatcher
	)
	if cfg.PushConfigured() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, a.store, webpushOptions, log)
		pool.Start(ctx)
		dispatcher = pool
	} else {
		log.Warn().Msg("VAPID keys are not configured, push reminders are disabled")
	}

	if cfg.Reminder.Enabled {
		scheduler := notification.NewScheduler(a.store, dispatcher, cfg.Reminder.InitialDelay, log)
		go func() {
			if err := scheduler.Run(ctx); err != nil {
				log.Error().Err(err).Msg("reminder scheduler stopped")
			}
		}()
	}

	backups := backup.NewManager(cfg.Backup.Dir, a.store, log)
	if cfg.Backup.Auto {
		interval := time.Duration(cfg.Backup.IntervalHours) * time.Hour
		maxAge := time.Duration(cfg.Backup.MaxAgeDays) * 24 * time.Hour
		go backups.Run(ctx, interval, maxAge)
	}

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	go sweepLimiter(ctx, limiter)

	handler := api.NewHandler(a.store, quarter.NewSelector(log, nil), webpushOptions, backups, log)
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        cfg.Server.CacheTTL,
		Limiter:         limiter,
		Logger:          log,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping services")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown")
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	log.Info().Msg("server gracefully stopped")
	return runErr
}

func sweepLimiter(ctx context.Context, limiter *mw.IPRateLimiter) {
	ticker := time.NewTicker(limiterSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep(limiterMaxIdle)
		}
	}
}
