package app

import (
	"context"
	"time"
)

// Event describes one completed transition. Events are published after the
// outcome is computed and never affect it.
type Event struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id,omitempty"`
	Operation  string    `json:"operation"`
	Source     string    `json:"source"`
	Mode       string    `json:"mode"`
	Years      int       `json:"years"`
	Success    bool      `json:"success"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	RecordID   string    `json:"record_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventSink receives transition events.
type EventSink interface {
	Publish(ctx context.Context, e Event) error
}

type nopSink struct{}

func (nopSink) Publish(context.Context, Event) error { return nil }

type sessionKey struct{}

// WithSessionID tags ctx so events published from it carry the session.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFromContext returns the id stored by WithSessionID.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
