package status

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) fire(i int) {
	c.mu.Lock()
	t := c.timers[i]
	c.mu.Unlock()
	t.f()
}

func TestReporter_ShowAndDismiss(t *testing.T) {
	clock := &fakeClock{}
	r := NewReporterWithTimer(clock.AfterFunc)

	_, ok := r.Current()
	assert.False(t, ok)

	r.Show(Succeeded("Chart updated"))
	n, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, Success, n.Kind)
	assert.Equal(t, "Chart updated", n.Message)

	require.Len(t, clock.timers, 1)
	assert.Equal(t, DismissAfter, clock.timers[0].d)
	assert.Equal(t, 5*time.Second, clock.timers[0].d)

	clock.fire(0)
	_, ok = r.Current()
	assert.False(t, ok)
}

func TestReporter_NewNoticeResetsTimer(t *testing.T) {
	clock := &fakeClock{}
	r := NewReporterWithTimer(clock.AfterFunc)

	r.Show(Succeeded("first"))
	r.Show(Failed("second"))

	require.Len(t, clock.timers, 2)
	assert.True(t, clock.timers[0].stopped, "previous timer must be stopped")
	assert.False(t, clock.timers[1].stopped)

	// A stale timer firing late must not hide the newer notice.
	clock.fire(0)
	n, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "second", n.Message)
	assert.Equal(t, Error, n.Kind)

	clock.fire(1)
	_, ok = r.Current()
	assert.False(t, ok)
}

func TestReporter_Clear(t *testing.T) {
	clock := &fakeClock{}
	r := NewReporterWithTimer(clock.AfterFunc)

	r.Show(Failed("boom"))
	r.Clear()
	_, ok := r.Current()
	assert.False(t, ok)
	assert.True(t, clock.timers[0].stopped)
}

func TestReporter_RealTimer(t *testing.T) {
	r := NewReporter()
	r.Show(Succeeded("ok"))
	_, ok := r.Current()
	assert.True(t, ok)
	r.Clear()
}

func TestNotice_IsZero(t *testing.T) {
	assert.True(t, Notice{}.IsZero())
	assert.False(t, Failed("x").IsZero())
}
