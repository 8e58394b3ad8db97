package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Handler processes one consumed notification.
type Handler interface {
	Handle(ctx context.Context, msg Notification) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Notification) error

func (f HandlerFunc) Handle(ctx context.Context, msg Notification) error {
	return f(ctx, msg)
}

// SenderHandler delivers consumed notifications through a Sender.
func SenderHandler(s Sender) Handler {
	return HandlerFunc(s.Send)
}

// Router dispatches notifications to type-specific handlers.
type Router struct {
	handlers map[string]Handler
	fallback Handler
	logger   *slog.Logger
}

// NewRouter creates a router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback Handler) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handlers: make(map[string]Handler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for a notification type such as "document.certificado".
func (r *Router) Register(notificationType string, h Handler) {
	r.handlers[notificationType] = h
}

func (r *Router) Handle(ctx context.Context, msg Notification) error {
	h, ok := r.handlers[msg.Type]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, msg)
		}
		r.logger.Warn("no handler for notification type, skipping",
			"type", msg.Type,
			"document_id", msg.DocumentID.String(),
		)
		return nil
	}
	return h.Handle(ctx, msg)
}

// Fetcher is the subset of *kgo.Client used by Consumer.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
}

// Consumer polls the notification topic and hands each record to a Handler.
// Offsets are committed after every processed batch; handler errors are
// logged and the record is skipped so one bad message cannot stall the group.
type Consumer struct {
	client  Fetcher
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(client Fetcher, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, handler: handler, logger: logger}
}

// Run consumes until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			c.process(ctx, rec)
		})
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "offset commit failed", "error", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, rec *kgo.Record) {
	var msg Notification
	if err := json.Unmarshal(rec.Value, &msg); err != nil {
		c.logger.WarnContext(ctx, "skipping undecodable notification",
			"partition", rec.Partition,
			"offset", rec.Offset,
			"error", err,
		)
		return
	}
	if err := c.handler.Handle(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "notification handler failed",
			"notification_id", msg.ID.String(),
			"type", msg.Type,
			"error", err,
		)
	}
}
