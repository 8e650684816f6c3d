// Package app holds the chart page state and the transitions that move it
// through validate, derive and render.
package app

import (
	"paychart/internal/chart"
	"paychart/internal/core"
	"paychart/internal/status"
)

// State is everything a page keeps between actions: the display mode and
// the text buffer holding the current JSON. The rendered chart is derived
// from these.
type State struct {
	Mode   chart.Mode `json:"mode"`
	Buffer string     `json:"buffer"`
}

// Initial is the state of a fresh page before the sample is loaded.
func Initial() State {
	return State{Mode: chart.Annual}
}

// Outcome is the result of one transition.
type Outcome struct {
	State State
	// Option is nil when the chart must keep its last good rendering.
	Option *chart.Option
	Record *core.Record
	// Note is the record note for display, empty when nothing was rendered.
	Note     string
	FileInfo string
	Notice   status.Notice
}

// Rendered reports whether the transition produced a new chart.
func (o Outcome) Rendered() bool {
	return o.Option != nil
}
