// Command notifier consumes document notifications from Kafka and hands them
// to the delivery sender. Email delivery is an external collaborator, so the
// sender here is the structured log.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"notaria/internal/document/models"
	"notaria/internal/notification"
	"notaria/internal/platform/config"
	"notaria/internal/platform/kafka"
	"notaria/internal/platform/logger"
)

const consumerGroup = "notaria-notifier"

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("notifier exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	client, err := kafka.NewConsumerClient(cfg.Kafka, consumerGroup)
	if err != nil {
		return err
	}
	defer client.Close()

	sender := notification.NewLogNotifier(log)
	router := notification.NewRouter(log, notification.SenderHandler(sender))
	for _, state := range []models.State{models.StateEntregado, models.StateRechazado, models.StateCancelado} {
		notificationType := notification.TypeForState(string(state))
		router.Register(notificationType, notification.HandlerFunc(func(ctx context.Context, msg notification.Notification) error {
			log.InfoContext(ctx, "document reached terminal state",
				"type", notificationType,
				"document_id", msg.DocumentID.String(),
				"recipient", msg.Recipient.String(),
			)
			return sender.Send(ctx, msg)
		}))
	}

	log.Info("notifier consuming", "topic", cfg.Kafka.Topic, "group", consumerGroup)
	return notification.NewConsumer(client, router, log).Run(ctx)
}
