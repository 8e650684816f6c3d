// Package worker consumes render events published by the web server.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"paychart/internal/amqp"
	"paychart/internal/cache"
	applog "paychart/internal/log"
)

// seenTTL bounds how long an event id is remembered for deduplication.
const seenTTL = time.Hour

// Stats is a snapshot of the events handled so far.
type Stats struct {
	Total       int
	Succeeded   int
	Failed      int
	Duplicates  int
	ByOperation map[string]int
	ByErrorKind map[string]int
	// Lag is the delay between the last event occurring and being handled.
	Lag time.Duration
}

// EventWorker tallies render events and logs each one.
type EventWorker struct {
	logger *applog.Logger
	seen   *cache.LRUCache[struct{}]
	now    func() time.Time

	mu    sync.Mutex
	stats Stats
}

// NewEventWorker remembers up to maxSeen event ids so redelivered messages
// are counted once.
func NewEventWorker(logger *applog.Logger, maxSeen int) *EventWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &EventWorker{
		logger: logger.WithComponent(applog.ComponentAMQP),
		seen:   cache.NewLRUCache[struct{}](maxSeen, seenTTL),
		now:    time.Now,
		stats: Stats{
			ByOperation: make(map[string]int),
			ByErrorKind: make(map[string]int),
		},
	}
}

// HandleRenderEvent processes one message from the queue.
func (w *EventWorker) HandleRenderEvent(ctx context.Context, msg *amqp.RenderEventMessage) error {
	if msg == nil || msg.ID == "" {
		return errors.New("render event without id")
	}

	w.mu.Lock()
	if _, dup := w.seen.Get(msg.ID); dup {
		w.stats.Duplicates++
		w.mu.Unlock()
		w.logger.DebugContext(ctx, "Duplicate render event skipped", "id", msg.ID)
		return nil
	}
	w.seen.Set(msg.ID, struct{}{})

	w.stats.Total++
	w.stats.ByOperation[msg.Operation]++
	if msg.Success {
		w.stats.Succeeded++
	} else {
		w.stats.Failed++
		w.stats.ByErrorKind[msg.ErrorKind]++
	}
	if !msg.OccurredAt.IsZero() {
		w.stats.Lag = w.now().Sub(msg.OccurredAt)
	}
	w.mu.Unlock()

	args := []any{
		"id", msg.ID,
		applog.FieldSessionID, msg.SessionID,
		applog.FieldOperation, msg.Operation,
		applog.FieldSource, msg.Source,
		applog.FieldMode, msg.Mode,
		applog.FieldYears, msg.Years,
		applog.FieldSuccess, msg.Success,
		"record_id", msg.RecordID,
	}
	if msg.Success {
		w.logger.InfoContext(ctx, "Render event", args...)
	} else {
		w.logger.WarnContext(ctx, "Render event", append(args, applog.FieldErrorKind, msg.ErrorKind)...)
	}
	return nil
}

// Stats returns a copy of the current counters.
func (w *EventWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := w.stats
	out.ByOperation = make(map[string]int, len(w.stats.ByOperation))
	for k, v := range w.stats.ByOperation {
		out.ByOperation[k] = v
	}
	out.ByErrorKind = make(map[string]int, len(w.stats.ByErrorKind))
	for k, v := range w.stats.ByErrorKind {
		out.ByErrorKind[k] = v
	}
	return out
}

// ReportEvery logs the counters every interval until ctx is done. It
// returns nil so it can run inside an errgroup.
func (w *EventWorker) ReportEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s := w.Stats()
			w.logger.InfoContext(ctx, "Render event totals",
				"total", s.Total,
				"succeeded", s.Succeeded,
				"failed", s.Failed,
				"duplicates", s.Duplicates,
				"by_operation", s.ByOperation,
				"by_error_kind", s.ByErrorKind,
				"lag", s.Lag)
			w.seen.CleanExpired()
		case <-ctx.Done():
			return nil
		}
	}
}
