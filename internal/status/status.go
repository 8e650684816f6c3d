// Package status holds transient success/error notices.
//
// A Reporter shows at most one notice at a time. Every notice dismisses
// itself after DismissAfter; showing a new notice replaces the current one
// and restarts the timer instead of queueing behind it.
package status

import (
	"sync"
	"time"
)

// DismissAfter is how long a notice stays visible.
const DismissAfter = 5 * time.Second

// Kind classifies a notice.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Notice is a single status message.
type Notice struct {
	Kind    Kind   `json:"type"`
	Message string `json:"message"`
}

// IsZero reports whether n carries no message.
func (n Notice) IsZero() bool {
	return n.Message == ""
}

// Succeeded and Failed build the notices the transitions emit.
func Succeeded(msg string) Notice { return Notice{Kind: Success, Message: msg} }
func Failed(msg string) Notice   { return Notice{Kind: Error, Message: msg} }

// Timer is the subset of *time.Timer used by Reporter.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Reporter tracks the currently visible notice.
type Reporter struct {
	mu        sync.Mutex
	current   Notice
	visible   bool
	timer     Timer
	seq       uint64
	afterFunc AfterFunc
}

// NewReporter returns a Reporter backed by time.AfterFunc.
func NewReporter() *Reporter {
	return NewReporterWithTimer(stdAfterFunc)
}

// NewReporterWithTimer returns a Reporter using af to schedule dismissal.
func NewReporterWithTimer(af AfterFunc) *Reporter {
	return &Reporter{afterFunc: af}
}

// Show displays n, preempting any visible notice and its pending dismissal.
func (r *Reporter) Show(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.seq++
	seq := r.seq
	r.current = n
	r.visible = true
	r.timer = r.afterFunc(DismissAfter, func() { r.dismiss(seq) })
}

// dismiss hides the notice only if no newer one was shown since seq; a
// timer that fired while being stopped must not clear its successor.
func (r *Reporter) dismiss(seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq != r.seq {
		return
	}
	r.visible = false
	r.current = Notice{}
	r.timer = nil
}

// Current returns the visible notice, if any.
func (r *Reporter) Current() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.visible
}

// Clear hides the notice immediately.
func (r *Reporter) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.seq++
	r.visible = false
	r.current = Notice{}
}
