package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paychart/internal/amqp"
	"paychart/internal/app"
	applog "paychart/internal/log"
)

func newTestWorker() *EventWorker {
	logger := applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
	return NewEventWorker(logger, 16)
}

func msg(id, op string, ok bool, kind string) *amqp.RenderEventMessage {
	return amqp.NewRenderEventMessage(app.Event{
		ID:        id,
		Operation: op,
		Source:    "text",
		Mode:      "annual",
		Success:   ok,
		ErrorKind: kind,
	})
}

func TestHandleRenderEvent_Tallies(t *testing.T) {
	w := newTestWorker()
	ctx := context.Background()

	require.NoError(t, w.HandleRenderEvent(ctx, msg("a", applog.OpUpdate, true, "")))
	require.NoError(t, w.HandleRenderEvent(ctx, msg("b", applog.OpUpdate, false, "parse")))
	require.NoError(t, w.HandleRenderEvent(ctx, msg("c", applog.OpToggle, true, "")))

	s := w.Stats()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, map[string]int{applog.OpUpdate: 2, applog.OpToggle: 1}, s.ByOperation)
	assert.Equal(t, map[string]int{"parse": 1}, s.ByErrorKind)
}

func TestHandleRenderEvent_SkipsDuplicates(t *testing.T) {
	w := newTestWorker()
	ctx := context.Background()

	require.NoError(t, w.HandleRenderEvent(ctx, msg("a", applog.OpSample, true, "")))
	require.NoError(t, w.HandleRenderEvent(ctx, msg("a", applog.OpSample, true, "")))

	s := w.Stats()
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 1, s.Duplicates)
}

func TestHandleRenderEvent_RejectsMissingID(t *testing.T) {
	w := newTestWorker()
	assert.Error(t, w.HandleRenderEvent(context.Background(), msg("", applog.OpSample, true, "")))
	assert.Error(t, w.HandleRenderEvent(context.Background(), nil))
	assert.Zero(t, w.Stats().Total)
}

func TestHandleRenderEvent_Lag(t *testing.T) {
	w := newTestWorker()
	occurred := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return occurred.Add(3 * time.Second) }

	m := msg("a", applog.OpUpload, true, "")
	m.OccurredAt = occurred
	require.NoError(t, w.HandleRenderEvent(context.Background(), m))
	assert.Equal(t, 3*time.Second, w.Stats().Lag)
}

func TestStatsReturnsCopy(t *testing.T) {
	w := newTestWorker()
	require.NoError(t, w.HandleRenderEvent(context.Background(), msg("a", applog.OpUpdate, true, "")))

	s := w.Stats()
	s.ByOperation[applog.OpUpdate] = 99
	assert.Equal(t, 1, w.Stats().ByOperation[applog.OpUpdate])
}

func TestReportEveryStopsOnCancel(t *testing.T) {
	w := newTestWorker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.ReportEvery(ctx, time.Millisecond))
}
