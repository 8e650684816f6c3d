package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	applog "paychart/internal/log"
)

// ErrEventDropped is returned by AsyncSink.Publish when its queue is full.
var ErrEventDropped = errors.New("event queue full, event dropped")

const drainTimeout = 5 * time.Second

// AsyncSink queues events and forwards them to another sink from Run, so
// transitions never wait on the broker. When the queue is full new events
// are dropped.
type AsyncSink struct {
	next    EventSink
	queue   chan Event
	log     *applog.Logger
	dropped atomic.Int64
}

var _ EventSink = (*AsyncSink)(nil)

// NewAsyncSink buffers up to size events in front of next.
func NewAsyncSink(next EventSink, size int, logger *applog.Logger) *AsyncSink {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &AsyncSink{
		next:  next,
		queue: make(chan Event, size),
		log:   logger.WithComponent(applog.ComponentAMQP),
	}
}

// Publish enqueues e without blocking.
func (s *AsyncSink) Publish(_ context.Context, e Event) error {
	select {
	case s.queue <- e:
		return nil
	default:
		s.dropped.Add(1)
		return ErrEventDropped
	}
}

// Run forwards queued events until ctx is done, then flushes what is left
// within drainTimeout. It returns nil so it can run inside an errgroup.
func (s *AsyncSink) Run(ctx context.Context) error {
	for {
		select {
		case e := <-s.queue:
			s.forward(ctx, e)
		case <-ctx.Done():
			s.drain()
			return nil
		}
	}
}

func (s *AsyncSink) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case e := <-s.queue:
			if ctx.Err() != nil {
				s.dropped.Add(1)
				continue
			}
			s.forward(ctx, e)
		default:
			return
		}
	}
}

func (s *AsyncSink) forward(ctx context.Context, e Event) {
	if err := s.next.Publish(ctx, e); err != nil {
		s.log.WarnContext(ctx, "Failed to publish render event",
			"id", e.ID,
			applog.FieldOperation, e.Operation,
			applog.FieldError, err)
	}
}

// Dropped reports how many events were discarded.
func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}
