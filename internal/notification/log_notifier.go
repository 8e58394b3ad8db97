package notification

import (
	"context"
	"log/slog"

	"notaria/pkg/requestcontext"
)

// LogNotifier writes notifications to the structured log. It is the sender
// used when no broker is configured and the fallback while Kafka is down.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Notification) error {
	n.logger.InfoContext(ctx, "notification",
		"request_id", requestcontext.RequestID(ctx),
		"notification_id", msg.ID.String(),
		"type", msg.Type,
		"document_id", msg.DocumentID.String(),
		"recipient", msg.Recipient.String(),
		"template_data", msg.TemplateData,
	)
	return nil
}
