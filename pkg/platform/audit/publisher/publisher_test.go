package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaria/pkg/domain"
	audit "notaria/pkg/platform/audit"
	"notaria/pkg/platform/audit/store/memory"
	"notaria/pkg/platform/circuit"
)

func newEvent(entityID string, eventType audit.AuditEvent) audit.Event {
	return audit.Event{
		EventType: eventType,
		EntityID:  entityID,
		ActorID:   domain.UserID(uuid.New()),
		ActorRole: domain.RoleGestor,
	}
}

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	docID := uuid.NewString()
	err := pub.Emit(context.Background(), newEvent(docID, audit.EventDocumentCreated))
	require.NoError(t, err)

	events, err := pub.List(context.Background(), docID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventDocumentCreated, events[0].EventType)
	assert.Equal(t, audit.CategoryOperations, events[0].Category())
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	docID := uuid.NewString()
	err := pub.Emit(context.Background(), newEvent(docID, audit.EventDocumentTransitioned))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		events, err := pub.List(context.Background(), docID)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	docID := uuid.NewString()
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), newEvent(docID, audit.EventDocumentUpdated)))
	}

	pub.Close()

	events, err := store.ListByEntity(context.Background(), docID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_EmitAfterCloseWritesThrough(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	docID := uuid.NewString()
	require.NoError(t, pub.Emit(context.Background(), newEvent(docID, audit.EventDocumentDeleted)))

	events, err := store.ListByEntity(context.Background(), docID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPublisher_BufferFull_DoesNotPanic(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	docID := uuid.NewString()
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), newEvent(docID, audit.EventDocumentUpdated))
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	docID := uuid.NewString()
	before := time.Now()
	require.NoError(t, pub.Emit(context.Background(), newEvent(docID, audit.EventDocumentCreated)))
	after := time.Now()

	events, err := pub.List(context.Background(), docID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	docID := uuid.NewString()
	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	event := newEvent(docID, audit.EventDocumentCreated)
	event.Timestamp = customTime
	require.NoError(t, pub.Emit(context.Background(), event))

	events, err := pub.List(context.Background(), docID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_PreservesOrderPerEntity(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	docID := uuid.NewString()
	sequence := []audit.AuditEvent{
		audit.EventDocumentCreated,
		audit.EventDocumentTransitioned,
		audit.EventSignatureApplied,
	}
	for _, et := range sequence {
		require.NoError(t, pub.Emit(context.Background(), newEvent(docID, et)))
	}

	result, err := pub.List(context.Background(), docID)
	require.NoError(t, err)
	require.Len(t, result, 3)
	for i, et := range sequence {
		assert.Equal(t, et, result[i].EventType)
	}
}

type failingStore struct {
	*memory.InMemoryStore
	fail     bool
	attempts int
}

func (s *failingStore) Append(ctx context.Context, event audit.Event) error {
	s.attempts++
	if s.fail {
		return errors.New("store down")
	}
	return s.InMemoryStore.Append(ctx, event)
}

func TestPublisher_CircuitOpensOnStoreFailures(t *testing.T) {
	store := &failingStore{InMemoryStore: memory.NewInMemoryStore(), fail: true}
	breaker := circuit.New("audit_store", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))
	pub := NewPublisher(store, WithBreaker(breaker))
	defer pub.Close()

	docID := uuid.NewString()
	assert.Error(t, pub.Emit(context.Background(), newEvent(docID, audit.EventDocumentCreated)))
	assert.Error(t, pub.Emit(context.Background(), newEvent(docID, audit.EventDocumentCreated)))
	assert.True(t, breaker.IsOpen())

	// Open circuit still writes; the failed event is dropped without an error.
	assert.NoError(t, pub.Emit(context.Background(), newEvent(docID, audit.EventDocumentCreated)))
	assert.Equal(t, 3, store.attempts)
	assert.True(t, breaker.IsOpen())

	store.fail = false
	assert.NoError(t, pub.Emit(context.Background(), newEvent(docID, audit.EventDocumentUpdated)))
	assert.False(t, breaker.IsOpen())

	events, err := pub.List(context.Background(), docID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventDocumentUpdated, events[0].EventType)
}
