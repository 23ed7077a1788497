package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/brainbarter/brain_barter/configs"
	"github.com/brainbarter/brain_barter/database"
	"github.com/brainbarter/brain_barter/handlers"
	"github.com/brainbarter/brain_barter/jobs"
	"github.com/brainbarter/brain_barter/notifications"
	"github.com/brainbarter/brain_barter/observability"
	"github.com/brainbarter/brain_barter/routes"
	"github.com/brainbarter/brain_barter/services"
	"github.com/brainbarter/brain_barter/store"
	"github.com/brainbarter/brain_barter/websocket"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const serviceName = "brain-barter-api"

var (
	skipMigrate bool

	rootCmd = &cobra.Command{
		Use:   "brainbarter",
		Short: "Brain Barter skill exchange API",
		Long: `Brain Barter lets users trade skills: learners spend a credit for a
session and teachers earn it once both sides confirm the session.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create demo users with overlapping skills",
		RunE:  runSeed,
	}
)

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on startup")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func setup() *config.Config {
	cfg := config.Load()
	observability.InitLogger(serviceName, cfg.Env)
	return cfg
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := setup()
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	return database.Migrate(db)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg := setup()
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	return database.SeedDemo(db)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := setup()
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if !skipMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := websocket.NewRegistry()
	hub := websocket.NewHub(registry, cfg.NotificationBuffer)
	go hub.Run(ctx)

	var notifier notifications.Notifier = hub
	if cfg.RedisURL != "" {
		rdb, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, notifications stay on this instance")
		} else {
			defer rdb.Close()
			bridge := websocket.NewRedisBridge(rdb, hub)
			notifier = bridge
			go func() {
				if err := bridge.Run(ctx); err != nil {
					log.Error().Err(err).Msg("notification bridge stopped, notifications stay on this instance")
				}
			}()
		}
	}

	st := store.NewGormStore(db)
	mailer := notifications.NewMailer(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName)
	h := &handlers.Handler{
		Config:     cfg,
		DB:         db,
		Store:      st,
		Settlement: services.NewSettlementService(st, notifier),
		Notifier:   notifier,
		Registry:   registry,
		Mailer:     mailer,
	}

	reminder := &jobs.PendingProposalReminder{
		Store:    st,
		Notifier: notifier,
		Mailer:   mailer,
		After:    cfg.PendingReminderAfter,
	}
	c := cron.New()
	if _, err := c.AddFunc(cfg.ReminderSchedule, reminder.Run); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()
	log.Info().Str("schedule", cfg.ReminderSchedule).Msg("pending proposal reminder scheduled")

	app := newApp(cfg)
	routes.Setup(app, h)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("server is running")
	return app.Listen(":" + cfg.Port)
}
