package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/pkg/requestcontext"
)

type failingStore struct{ err error }

func (s *failingStore) Append(context.Context, Event) error { return s.err }

func TestPublisherEmit(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("assigns id and timestamp from request context", func(t *testing.T) {
		store := NewInMemoryStore()
		pub, err := NewPublisher(store, logger)
		require.NoError(t, err)

		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), now)

		err = pub.Emit(ctx, Event{Reason: "verification_rejected", PrincipalID: 42})
		require.NoError(t, err)

		events := store.Events()
		require.Len(t, events, 1)
		assert.NotEqual(t, uuid.Nil, events[0].ID)
		assert.Equal(t, now, events[0].Timestamp)
		assert.Equal(t, "verification_rejected", events[0].Reason)
	})

	t.Run("keeps caller-supplied id and timestamp", func(t *testing.T) {
		store := NewInMemoryStore()
		pub, err := NewPublisher(store, logger)
		require.NoError(t, err)

		id := uuid.New()
		ts := time.Date(2025, 11, 5, 8, 30, 0, 0, time.UTC)
		err = pub.Emit(context.Background(), Event{ID: id, Timestamp: ts, Reason: "tokens_issued"})
		require.NoError(t, err)

		events := store.Events()
		require.Len(t, events, 1)
		assert.Equal(t, id, events[0].ID)
		assert.Equal(t, ts, events[0].Timestamp)
	})

	t.Run("primary store failure is returned", func(t *testing.T) {
		pub, err := NewPublisher(&failingStore{err: errors.New("boom")}, logger)
		require.NoError(t, err)

		err = pub.Emit(context.Background(), Event{Reason: "verification_rejected"})
		assert.Error(t, err)
	})

	t.Run("sink failure does not fail the emit", func(t *testing.T) {
		store := NewInMemoryStore()
		pub, err := NewPublisher(store, logger, WithSink(&failingStore{err: errors.New("broker down")}))
		require.NoError(t, err)

		err = pub.Emit(context.Background(), Event{Reason: "verification_rejected"})
		require.NoError(t, err)
		assert.Len(t, store.Events(), 1)
	})

	t.Run("sinks receive the enriched event", func(t *testing.T) {
		store := NewInMemoryStore()
		sink := NewInMemoryStore()
		pub, err := NewPublisher(store, logger, WithSink(sink))
		require.NoError(t, err)

		err = pub.Emit(context.Background(), Event{Reason: "verification_rejected", PrincipalID: 7})
		require.NoError(t, err)

		mirrored := sink.Events()
		require.Len(t, mirrored, 1)
		assert.NotEqual(t, uuid.Nil, mirrored[0].ID)
		assert.False(t, mirrored[0].Timestamp.IsZero())
	})
}

func TestWorkerPersistsInboxEvents(t *testing.T) {
	store := NewInMemoryStore()
	inbox := make(chan Event, 2)
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- Event{Reason: "verification_rejected"}
	inbox <- Event{Reason: "tokens_issued"}

	require.Eventually(t, func() bool { return len(store.Events()) == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
