// Package session keeps per-browser page state between requests.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"paychart/internal/app"
	"paychart/internal/chart"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is one browser's page. Option is the last chart that rendered
// successfully and is nil until something has.
type Session struct {
	ID        string
	State     app.State
	Option    *chart.Option
	Note      string
	FileInfo  string
	UpdatedAt time.Time
}

// New returns a session with a fresh id and the initial state.
func New() Session {
	return Session{ID: uuid.NewString(), State: app.Initial()}
}

// Apply folds a transition outcome into the session. The chart, note and
// file info are only replaced when the outcome carries new values.
func (s Session) Apply(out app.Outcome, now time.Time) Session {
	s.State = out.State
	if out.Option != nil {
		s.Option = out.Option
		s.Note = out.Note
	}
	if out.FileInfo != "" {
		s.FileInfo = out.FileInfo
	}
	s.UpdatedAt = now
	return s
}

// Store persists sessions. Implementations replace whole values on Save.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

// ValidID reports whether id looks like an id produced by New.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
