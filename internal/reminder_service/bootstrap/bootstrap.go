// Package bootstrap wires the reminder components shared by the long-running
// service and reminderctl.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bondtrack/golang_services/internal/platform/config"
	"github.com/bondtrack/golang_services/internal/platform/database"
	"github.com/bondtrack/golang_services/internal/platform/messagebroker"
	"github.com/bondtrack/golang_services/internal/reminder_service/adapters/notifier"
	"github.com/bondtrack/golang_services/internal/reminder_service/app"
	"github.com/bondtrack/golang_services/internal/reminder_service/repository/postgres"
)

// Components holds everything built from one Config.
type Components struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *pgxpool.Pool
	NATS   *messagebroker.NATSClient // nil when NATS_URL is empty

	Reminders     *postgres.PgReminderRepository
	CourtDates    *postgres.PgCourtDateRepository
	Clients       *postgres.PgClientRepository
	Notifications *postgres.PgNotificationRepository

	Scheduler  *app.Scheduler
	Dispatcher *notifier.ChannelDispatcher
	Dispatch   *app.DispatchPass
}

// Options tunes Build for the caller.
type Options struct {
	AppName string
	// Migrate applies the schema before anything else touches the database.
	Migrate bool
}

// Build connects to Postgres (and NATS when configured) and assembles the
// reminder components. Call Close when done.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Components, error) {
	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("Falling back to UTC for reminder timezone", "error", err)
	}

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c := &Components{Config: cfg, Logger: logger, DB: dbPool}

	if opts.Migrate {
		if err := postgres.Migrate(ctx, dbPool); err != nil {
			c.Close()
			return nil, err
		}
		logger.Info("Database schema applied")
	}

	if cfg.NATSUrl != "" {
		nc, err := messagebroker.NewNATSClient(cfg.NATSUrl, logger, opts.AppName)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		c.NATS = nc
	}

	c.Reminders = postgres.NewPgReminderRepository(dbPool, logger)
	c.CourtDates = postgres.NewPgCourtDateRepository(dbPool, logger)
	c.Clients = postgres.NewPgClientRepository(dbPool, logger)
	c.Notifications = postgres.NewPgNotificationRepository(dbPool, logger)

	var events messagebroker.Publisher
	if c.NATS != nil {
		events = c.NATS
	}
	channels := buildChannels(cfg, events, logger)

	c.Scheduler = app.NewScheduler(app.NewPolicy(loc, cfg.ReminderHour), c.Reminders, c.CourtDates, c.Clients, logger)
	c.Dispatcher = notifier.NewChannelDispatcher(c.Notifications, loc, cfg.EmailSubjectPrefix, logger, channels...)
	c.Dispatch = app.NewDispatchPass(c.Reminders, c.CourtDates, c.Clients, c.Dispatcher, events, logger, dispatchConfig(cfg))
	return c, nil
}

// buildChannels returns the delivery channels the config enables: SMS when
// SMS_PROVIDER_URL is set, email when a NATS publisher is available.
func buildChannels(cfg *config.Config, publisher messagebroker.Publisher, logger *slog.Logger) []notifier.Channel {
	var channels []notifier.Channel
	if cfg.SMSProviderURL != "" {
		channels = append(channels,
			notifier.NewHTTPSMSProvider(logger, cfg.SMSProviderURL, cfg.SMSProviderAPIKey, cfg.SMSSenderID, &http.Client{Timeout: cfg.SMSTimeout}))
	} else {
		logger.Warn("SMS_PROVIDER_URL not set; SMS channel disabled")
	}
	if publisher != nil {
		channels = append(channels, notifier.NewNATSEmailChannel(publisher))
	} else {
		logger.Warn("NATS_URL not set; email channel and reminders.sent events disabled")
	}
	if len(channels) == 0 {
		logger.Warn("No notification channel configured; due reminders will fail and back off")
	}
	return channels
}

func dispatchConfig(cfg *config.Config) app.DispatchConfig {
	return app.DispatchConfig{
		BatchSize:       cfg.ReminderDispatchBatchSize,
		RetryBackoff:    cfg.ReminderRetryBackoff,
		MaxRetryBackoff: cfg.ReminderRetryMaxBackoff,
	}
}

// Close drains NATS and closes the pool.
func (c *Components) Close() {
	if c.NATS != nil {
		c.NATS.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
