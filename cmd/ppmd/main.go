package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"ppm-tracker-backend/config"
	"ppm-tracker-backend/internal/db"
	"ppm-tracker-backend/internal/logging"
	"ppm-tracker-backend/internal/model"
	"ppm-tracker-backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "ppmd",
		Short: "Hospital equipment PPM tracker",
		Long: `ppmd serves the planned preventive maintenance (PPM) tracker API.

Run without a subcommand to start the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, configPath, runServe)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.PathFromEnv(), "path to the YAML configuration file")

	root.AddCommand(
		newServeCmd(&configPath),
		newDashboardCmd(&configPath),
		newBackupCmd(&configPath),
	)
	return root
}

// app holds what every subcommand needs once the configuration is loaded.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	db    *gorm.DB
	store store.Store
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration from %s: %w", configPath, err)
	}
	log := logging.Setup(cfg.Log.Format, cfg.Log.Level)
	log.Debug().Str("path", configPath).Msg("configuration loaded")

	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	s := store.NewGormStore(gormDB)
	seed := model.Settings{
		PushNotificationsEnabled:        cfg.Reminder.Enabled && cfg.PushConfigured(),
		PushNotificationIntervalMinutes: cfg.Reminder.IntervalMinutes,
		ReminderDays:                    cfg.Reminder.DaysAhead,
	}
	if err := s.EnsureSettings(ctx, seed); err != nil {
		closeDB(gormDB)
		return nil, fmt.Errorf("seed settings: %w", err)
	}

	return &app{cfg: cfg, log: log, db: gormDB, store: s}, nil
}

func (a *app) Close() {
	closeDB(a.db)
}

func closeDB(gormDB *gorm.DB) {
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// withApp opens the application for the duration of fn.
func withApp(cmd *cobra.Command, configPath string, fn func(*cobra.Command, *app) error) error {
	a, err := openApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd, a)
}
