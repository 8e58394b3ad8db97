package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kgo"

	"notaria/pkg/platform/circuit"
)

const (
	headerType        = "notification-type"
	defaultProbeEvery = 30 * time.Second
)

var (
	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notaria_notifications_sent_total",
		Help: "Notifications handed to a sender, by sender (kafka, fallback) and outcome",
	}, []string{"sender", "outcome"})
	notificationBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notaria_notification_circuit_breaker_state",
		Help: "Notification producer circuit breaker state (1=open, 0=closed)",
	})
)

// Sender delivers a notification somewhere other than Kafka.
type Sender interface {
	Send(ctx context.Context, msg Notification) error
}

// Producer is the subset of *kgo.Client used to publish records.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// KafkaNotifier publishes notifications keyed by document id so every event of
// a document lands on the same partition in order. Produce is asynchronous;
// delivery failures feed a circuit breaker and fall back to Sender. While the
// breaker is open records go straight to the fallback, with one Kafka probe
// per probe interval.
type KafkaNotifier struct {
	producer Producer
	topic    string
	fallback Sender
	breaker  *circuit.Breaker
	logger   *slog.Logger

	probeEvery time.Duration
	mu         sync.Mutex
	lastProbe  time.Time
	now        func() time.Time
}

type KafkaOption func(*KafkaNotifier)

func WithFallback(s Sender) KafkaOption {
	return func(n *KafkaNotifier) {
		n.fallback = s
	}
}

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(n *KafkaNotifier) {
		n.breaker = b
	}
}

func WithLogger(logger *slog.Logger) KafkaOption {
	return func(n *KafkaNotifier) {
		n.logger = logger
	}
}

func WithProbeInterval(d time.Duration) KafkaOption {
	return func(n *KafkaNotifier) {
		if d > 0 {
			n.probeEvery = d
		}
	}
}

func NewKafkaNotifier(producer Producer, topic string, opts ...KafkaOption) *KafkaNotifier {
	n := &KafkaNotifier{
		producer:   producer,
		topic:      topic,
		breaker:    circuit.New("notification_producer"),
		probeEvery: defaultProbeEvery,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	if n.fallback == nil {
		n.fallback = NewLogNotifier(n.logger)
	}
	return n
}

func (n *KafkaNotifier) Send(ctx context.Context, msg Notification) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if n.breaker.IsOpen() && !n.probeDue() {
		return n.sendFallback(ctx, msg)
	}

	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(msg.DocumentID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: headerType, Value: []byte(msg.Type)},
		},
	}
	// The request context may be cancelled before the broker acks.
	n.producer.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		n.onDelivery(ctx, msg, err)
	})
	return nil
}

func (n *KafkaNotifier) onDelivery(ctx context.Context, msg Notification, err error) {
	if err == nil {
		notificationsSent.WithLabelValues("kafka", "ok").Inc()
		if _, change := n.breaker.RecordSuccess(); change.Closed {
			n.logger.Info("notification producer circuit closed")
			notificationBreakerState.Set(0)
		}
		return
	}

	notificationsSent.WithLabelValues("kafka", "error").Inc()
	if _, change := n.breaker.RecordFailure(); change.Opened {
		n.logger.Warn("notification producer circuit opened", "error", err)
		notificationBreakerState.Set(1)
	}
	n.logger.WarnContext(ctx, "kafka delivery failed, using fallback",
		"notification_id", msg.ID.String(),
		"document_id", msg.DocumentID.String(),
		"error", err,
	)
	_ = n.sendFallback(context.WithoutCancel(ctx), msg)
}

func (n *KafkaNotifier) sendFallback(ctx context.Context, msg Notification) error {
	if err := n.fallback.Send(ctx, msg); err != nil {
		notificationsSent.WithLabelValues("fallback", "error").Inc()
		return err
	}
	notificationsSent.WithLabelValues("fallback", "ok").Inc()
	return nil
}

func (n *KafkaNotifier) probeDue() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	if now.Sub(n.lastProbe) < n.probeEvery {
		return false
	}
	n.lastProbe = now
	return true
}
