package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/deliverydesk/internal/api"
	"github.com/deliverydesk/internal/config"
	"github.com/deliverydesk/internal/database"
	"github.com/deliverydesk/internal/logging"
	"github.com/deliverydesk/internal/notify"
	"github.com/deliverydesk/internal/report"
	"github.com/deliverydesk/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	reports   *report.Service
	schedules *scheduler.Manager
	runner    *scheduler.Runner
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "deliverydesk",
		Short: "DeliveryDesk reporting service",
		Long: `DeliveryDesk renders order, delivery, courier, business and customer
reports on demand or on a schedule and mails them to recipients.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(configPath)
			if err != nil {
				return err
			}
			defer database.Close()
			return a.serve(cmd.Context())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run-due",
		Short: "Run all due scheduled reports once and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(configPath)
			if err != nil {
				return err
			}
			defer database.Close()

			summary, err := a.runner.RunDue(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if err := database.Initialize(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db := database.GetDB()

	created, err := database.EnsureAdmin(db, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("created bootstrap administrator", "email", cfg.Auth.AdminEmail)
	}
	if cfg.InsecureSecret() {
		logger.Warn("auth.jwt_secret is unset; using the built-in development secret")
	}

	generator := report.NewReportGenerator(db, report.NewStore(cfg.Report.OutputDir), loc)
	dispatcher := notify.NewDispatcher(notify.EmailConfig{
		SMTPHost: cfg.Email.SMTPHost,
		SMTPPort: cfg.Email.SMTPPort,
		From:     cfg.Email.From,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
	}, db, logger)

	runner := scheduler.NewRunner(db, generator, dispatcher, scheduler.RunnerConfig{
		Location:    loc,
		Concurrency: cfg.Scheduler.Concurrency,
		Notifier:    notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel),
		Logger:      logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		reports:   report.NewService(db, generator, dispatcher, loc, logger),
		schedules: scheduler.NewManager(db, loc),
		runner:    runner,
	}, nil
}

func (a *app) serve(ctx context.Context) error {
	gin.SetMode(a.cfg.Server.Mode)

	if interval := a.cfg.Scheduler.PollInterval; interval > 0 {
		poller := scheduler.NewPoller(a.runner, interval, a.logger)
		// Stop ends the poller after its current batch; a signal alone must
		// not cancel a batch midway.
		poller.Start(context.WithoutCancel(ctx))
		defer poller.Stop()
		a.logger.Info("scheduler poller started", "interval", interval.String())
	}

	server := api.NewServer(api.Options{
		DB:        database.GetDB(),
		Reports:   a.reports,
		Schedules: a.schedules,
		Runner:    a.runner,
		JWTSecret: a.cfg.Auth.JWTSecret,
		TokenTTL:  a.cfg.Auth.TokenTTL,
		APIKey:    a.cfg.Auth.APIKey,
		Logger:    a.logger,
	})

	a.logger.Info("starting API server", "port", a.cfg.Server.Port)
	if err := server.Start(ctx, a.cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	a.logger.Info("API server stopped")
	return nil
}
