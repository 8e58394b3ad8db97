// Package notification delivers document state-change notifications. The
// service side publishes to Kafka (or the log when no broker is configured);
// the consumer side reads the topic and routes each notification by type.
package notification

import "context"

// Notifier sends a notification. Implementations must not block on delivery.
type Notifier interface {
	Send(ctx context.Context, msg Notification) error
}
