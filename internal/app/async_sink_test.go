package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "paychart/internal/log"
)

// stalledSink blocks every Publish until release is closed, like a broker
// that accepts the TCP connection and never answers.
type stalledSink struct {
	started chan struct{}
	release chan struct{}

	mu  sync.Mutex
	ids []string
}

func newStalledSink() *stalledSink {
	return &stalledSink{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (s *stalledSink) Publish(_ context.Context, e Event) error {
	s.started <- struct{}{}
	<-s.release
	s.mu.Lock()
	s.ids = append(s.ids, e.ID)
	s.mu.Unlock()
	return nil
}

func (s *stalledSink) published() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func TestAsyncSink_StalledBrokerDoesNotBlockPublish(t *testing.T) {
	next := newStalledSink()
	s := NewAsyncSink(next, 1, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.NoError(t, s.Publish(ctx, Event{ID: "a"}))
	select {
	case <-next.started:
	case <-time.After(time.Second):
		t.Fatal("event was not forwarded")
	}

	// "a" is stuck in the broker; "b" fills the queue and "c" is dropped.
	start := time.Now()
	require.NoError(t, s.Publish(ctx, Event{ID: "b"}))
	assert.ErrorIs(t, s.Publish(ctx, Event{ID: "c"}), ErrEventDropped)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.EqualValues(t, 1, s.Dropped())

	close(next.release)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, []string{"a", "b"}, next.published())
}

func TestAsyncSink_FlushesOnShutdown(t *testing.T) {
	next := &recordingSink{}
	s := NewAsyncSink(next, 4, quietLogger())

	for _, id := range []string{"x", "y", "z"} {
		require.NoError(t, s.Publish(context.Background(), Event{ID: id}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Run(ctx))

	next.mu.Lock()
	defer next.mu.Unlock()
	assert.Len(t, next.events, 3)
}

func TestPipeline_WithAsyncSinkKeepsOutcome(t *testing.T) {
	next := newStalledSink()
	defer close(next.release)
	p := newTestPipeline(NewAsyncSink(next, 1, quietLogger()))

	out := p.LoadSample(context.Background(), Initial())
	require.True(t, out.Rendered())
}
