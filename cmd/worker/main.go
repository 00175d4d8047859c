package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nearamenities/backend/internal/adapters/database"
	"github.com/nearamenities/backend/internal/adapters/memory"
	"github.com/nearamenities/backend/internal/application/services"
	"github.com/nearamenities/backend/internal/domain/repositories"
	"github.com/nearamenities/backend/internal/infrastructure/clients/postgres"
	"github.com/nearamenities/backend/internal/infrastructure/notifications"
	"github.com/nearamenities/backend/internal/infrastructure/observability"
	"github.com/nearamenities/backend/pkg/config"
)

// The delivery worker drains the notification queue on a fixed cadence.
// Each pass attempts every pending message at most once; a message that
// fails stays failed unless WORKER_RETRY_FAILED re-enqueues it.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("amenity-worker", cfg.Env)
	logger := observability.GetLogger()

	var messageRepo repositories.MessageRepository
	if cfg.UseDatabase() {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		messageRepo = database.NewMessageAdapter(pgClient)
	} else {
		// An in-memory queue in a separate process never sees the API's
		// messages; this mode only exists for local smoke testing.
		logger.Warn().Msg("no database configured, draining an empty in-memory queue")
		messageRepo = memory.NewMessageStore()
	}

	sender, err := notifications.NewWhatsAppCloudSender(&cfg.WhatsApp)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize WhatsApp sender")
	}
	service := services.NewNotificationService(messageRepo, sender, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info().Msg("shutting down")
		cancel()
	}()

	logger.Info().
		Dur("interval", cfg.Worker.Interval).
		Bool("retry_failed", cfg.Worker.RetryFailed).
		Msg("delivery worker starting")

	ticker := time.NewTicker(cfg.Worker.Interval)
	defer ticker.Stop()

	for {
		runPass(ctx, cfg, service, logger)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runPass(ctx context.Context, cfg *config.Config, service *services.NotificationService, logger *zerolog.Logger) {
	if ctx.Err() != nil {
		return
	}

	if cfg.Worker.RetryFailed {
		requeued, err := service.RequeueAllFailed(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("failed to requeue failed messages")
		} else if requeued > 0 {
			logger.Info().Int("requeued", requeued).Msg("requeued failed messages")
		}
	}

	summary, err := service.DeliverPending(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("delivery pass failed")
		return
	}

	if summary.Attempted > 0 {
		logger.Info().
			Int("attempted", summary.Attempted).
			Int("sent", summary.Sent).
			Int("failed", summary.Failed).
			Msg("delivery pass complete")
	}
}
