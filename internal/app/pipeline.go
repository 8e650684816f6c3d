package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"paychart/internal/cache"
	"paychart/internal/chart"
	"paychart/internal/core"
	applog "paychart/internal/log"
	"paychart/internal/source"
	"paychart/internal/status"
)

// Notice texts.
const (
	MsgUpdated      = "Chart updated successfully!"
	MsgUpdateFailed = "Update chart failed: "
	MsgParseFailed  = "Parse JSON failed: "
	MsgReadFailed   = "Read file failed"
	MsgToggleFailed = "Toggle display failed: "
	MsgImportFailed = "Import failed: "

	InfoSample = "Using sample data"
)

const (
	defaultDerivedEntries = 256
	defaultDerivedTTL     = 30 * time.Minute
)

// Pipeline runs validate, derive and render for every transition. It is
// safe for concurrent use; the only shared state is the derived-metrics
// cache.
type Pipeline struct {
	derived *cache.LRUCache[core.Derived]
	events  EventSink
	log     *applog.StructuredLogger
	now     func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithEventSink publishes an Event after every transition.
func WithEventSink(s EventSink) PipelineOption {
	return func(p *Pipeline) {
		if s != nil {
			p.events = s
		}
	}
}

// WithLogger sets the logger used for render and rejection records.
func WithLogger(l *applog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.log = applog.NewStructuredLogger(l.WithComponent(applog.ComponentApp))
		}
	}
}

// NewPipeline creates a pipeline with an in-memory derived cache and no
// event sink.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		derived: cache.NewLRUCache[core.Derived](defaultDerivedEntries, defaultDerivedTTL),
		events:  nopSink{},
		log:     applog.NewStructuredLogger(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentApp)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DerivedCache exposes the cache so it can be registered for cleanup.
func (p *Pipeline) DerivedCache() *cache.LRUCache[core.Derived] {
	return p.derived
}

// LoadSample replaces the buffer with the bundled sample and renders it.
func (p *Pipeline) LoadSample(ctx context.Context, s State) Outcome {
	rec := core.Sample()
	s.Buffer = rec.Format()
	out := p.draw(ctx, applog.OpSample, source.Sample, s, rec)
	out.FileInfo = InfoSample
	return out
}

// UpdateFromText stores text as the buffer and renders it. A parse failure
// leaves the chart untouched.
func (p *Pipeline) UpdateFromText(ctx context.Context, s State, text string) Outcome {
	s.Buffer = text
	v, err := source.ParseText(text)
	if err != nil {
		return p.reject(ctx, applog.OpUpdate, source.Text, s, MsgParseFailed, err)
	}
	return p.run(ctx, applog.OpUpdate, source.Text, s, v)
}

// ToggleMode advances the display mode and re-renders text. The mode
// advances even when text does not parse.
func (p *Pipeline) ToggleMode(ctx context.Context, s State, text string) Outcome {
	s.Mode = s.Mode.Next()
	s.Buffer = text
	v, err := source.ParseText(text)
	if err != nil {
		return p.reject(ctx, applog.OpToggle, source.Text, s, MsgToggleFailed, err)
	}
	return p.run(ctx, applog.OpToggle, source.Text, s, v)
}

// LoadFile applies the result of source.FileLoader.Load. On a decode
// failure the buffer receives the raw file contents; on a read failure it
// is left alone.
func (p *Pipeline) LoadFile(ctx context.Context, s State, loaded source.Loaded, loadErr error) Outcome {
	src := loaded.Source
	if src == "" {
		src = source.File
	}

	var out Outcome
	switch {
	case loadErr == nil:
		s.Buffer = loaded.Text
		out = p.run(ctx, applog.OpUpload, src, s, loaded.Value)
	case errors.Is(loadErr, core.ErrParse):
		s.Buffer = loaded.Text
		out = p.reject(ctx, applog.OpUpload, src, s, MsgParseFailed, loadErr)
	default:
		out = p.reject(ctx, applog.OpUpload, src, s, "", loadErr)
		out.Notice = status.Failed(MsgReadFailed)
	}
	if loaded.Name != "" {
		out.FileInfo = loaded.Info()
	}
	return out
}

// Import renders a value fetched from another source. The buffer is only
// replaced when the value validates.
func (p *Pipeline) Import(ctx context.Context, s State, v any, label string) Outcome {
	rec, err := core.Validate(v)
	if err != nil {
		return p.reject(ctx, applog.OpImport, source.Sheets, s, MsgUpdateFailed, err)
	}
	s.Buffer = rec.Format()
	out := p.draw(ctx, applog.OpImport, source.Sheets, s, rec)
	out.FileInfo = "Imported from " + label
	return out
}

// ImportFailed reports an error raised while fetching an import.
func (p *Pipeline) ImportFailed(ctx context.Context, s State, err error) Outcome {
	return p.reject(ctx, applog.OpImport, source.Sheets, s, MsgImportFailed, err)
}

func (p *Pipeline) run(ctx context.Context, op, src string, s State, v any) Outcome {
	rec, err := core.Validate(v)
	if err != nil {
		return p.reject(ctx, op, src, s, MsgUpdateFailed, err)
	}
	return p.draw(ctx, op, src, s, rec)
}

func (p *Pipeline) draw(ctx context.Context, op, src string, s State, rec core.Record) Outcome {
	id := rec.Identity()
	d, hit, err := p.derived.GetOrCompute(id, func() (core.Derived, error) {
		return core.Derive(rec), nil
	})
	if err != nil {
		// Derive cannot fail; this only guards a broken cache.
		d, hit = core.Derive(rec), false
	}

	opt := chart.Build(rec, d, s.Mode)
	p.log.LogRender(ctx, op, src, s.Mode.String(), rec.Len(), hit)
	p.publish(ctx, Event{
		Operation: op,
		Source:    src,
		Mode:      s.Mode.String(),
		Years:     rec.Len(),
		Success:   true,
		RecordID:  id,
	})

	return Outcome{
		State:  s,
		Option: &opt,
		Record: &rec,
		Note:   rec.DisplayNote(),
		Notice: status.Succeeded(MsgUpdated),
	}
}

func (p *Pipeline) reject(ctx context.Context, op, src string, s State, prefix string, err error) Outcome {
	kind := core.Classify(err)
	if core.IsUserError(err) {
		p.log.LogRejected(ctx, op, src, err, kind)
	} else {
		fields := applog.NewFields()
		fields[applog.FieldSource] = src
		p.log.LogError(ctx, "Transition failed", err, applog.ComponentApp, op, fields)
	}
	p.publish(ctx, Event{
		Operation: op,
		Source:    src,
		Mode:      s.Mode.String(),
		ErrorKind: kind,
	})
	return Outcome{State: s, Notice: status.Failed(prefix + userMessage(err))}
}

func (p *Pipeline) publish(ctx context.Context, e Event) {
	e.ID = uuid.NewString()
	e.SessionID = SessionIDFromContext(ctx)
	e.OccurredAt = p.now().UTC()
	if err := p.events.Publish(ctx, e); err != nil {
		p.log.LogError(ctx, "Failed to publish render event", err, applog.ComponentAMQP, applog.OpPublish, nil)
	}
}

// userMessage drops the source prefix of parse errors so notices read
// like the decoder's own message.
func userMessage(err error) string {
	var pe *core.ParseError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err.Error()
	}
	return err.Error()
}
