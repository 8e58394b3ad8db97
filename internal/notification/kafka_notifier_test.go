package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"notaria/pkg/domain"
	"notaria/pkg/platform/circuit"
)

// fakeProducer completes every record synchronously with err.
type fakeProducer struct {
	mu      sync.Mutex
	err     error
	records []*kgo.Record
}

func (p *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	p.mu.Lock()
	p.records = append(p.records, r)
	err := p.err
	p.mu.Unlock()
	promise(r, err)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []Notification
}

func (s *recordingSender) Send(_ context.Context, msg Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func sampleNotification() Notification {
	return New(TypeForState("firmado_cliente"), domain.NewDocumentID(), domain.UserID(uuid.New()),
		map[string]string{"name": "Poder", "action": "firmar_cliente", "state": "firmado_cliente"},
		time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestKafkaNotifierPublishesKeyedRecord(t *testing.T) {
	producer := &fakeProducer{}
	fallback := &recordingSender{}
	n := NewKafkaNotifier(producer, "notaria.notifications", WithFallback(fallback))

	msg := sampleNotification()
	require.NoError(t, n.Send(context.Background(), msg))

	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "notaria.notifications", rec.Topic)
	assert.Equal(t, msg.DocumentID.String(), string(rec.Key))
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "document.firmado_cliente", string(rec.Headers[0].Value))

	var decoded Notification
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, msg.TemplateData, decoded.TemplateData)
	assert.Empty(t, fallback.sent)
}

func TestKafkaNotifierFallsBackOnDeliveryFailure(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unavailable")}
	fallback := &recordingSender{}
	n := NewKafkaNotifier(producer, "t", WithFallback(fallback))

	require.NoError(t, n.Send(context.Background(), sampleNotification()))
	assert.Len(t, fallback.sent, 1)
}

func TestKafkaNotifierSkipsKafkaWhileBreakerOpen(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unavailable")}
	fallback := &recordingSender{}
	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := NewKafkaNotifier(producer, "t",
		WithFallback(fallback),
		WithBreaker(breaker),
		WithProbeInterval(time.Minute),
	)
	n.now = func() time.Time { return clock }

	ctx := context.Background()
	require.NoError(t, n.Send(ctx, sampleNotification()))
	require.NoError(t, n.Send(ctx, sampleNotification()))
	require.True(t, breaker.IsOpen())
	require.Len(t, producer.records, 2)

	// First send while open probes Kafka, the next one inside the interval does not.
	require.NoError(t, n.Send(ctx, sampleNotification()))
	require.NoError(t, n.Send(ctx, sampleNotification()))
	assert.Len(t, producer.records, 3)
	assert.Len(t, fallback.sent, 4)

	// Broker recovers; the next due probe closes the breaker.
	producer.err = nil
	clock = clock.Add(2 * time.Minute)
	require.NoError(t, n.Send(ctx, sampleNotification()))
	assert.False(t, breaker.IsOpen())
	assert.Len(t, producer.records, 4)
	assert.Len(t, fallback.sent, 4)
}
