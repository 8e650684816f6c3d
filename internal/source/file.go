package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"paychart/internal/core"
)

// DefaultMaxBytes bounds uploads when the loader is built with a zero limit.
const DefaultMaxBytes = 1 << 20

// ErrTooLarge is wrapped in the ReadError returned for oversized files.
var ErrTooLarge = errors.New("file exceeds upload limit")

// Loaded is the outcome of reading one file.
type Loaded struct {
	Name string
	Size int64
	// Text is the pretty-printed JSON on success, or the raw file contents
	// when decoding failed so the user can inspect them.
	Text string
	// Value is the decoded input, nil when decoding failed.
	Value any
	// Source is File or CSV depending on the decoder used.
	Source string
}

// Info describes the selected file for display.
func (l Loaded) Info() string {
	return fmt.Sprintf("Selected file: %s (%d KB)", l.Name, int64(math.Round(float64(l.Size)/1024)))
}

// FileLoader reads uploads.
type FileLoader struct {
	maxBytes int64
}

// NewFileLoader returns a loader rejecting files larger than maxBytes.
func NewFileLoader(maxBytes int64) *FileLoader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileLoader{maxBytes: maxBytes}
}

type readResult struct {
	data []byte
	err  error
}

// Load reads r in the background and waits for the result or ctx. Names
// ending in .csv are decoded as CSV, everything else as JSON.
//
// A read failure returns a *core.ReadError. A decode failure returns a
// *core.ParseError together with a Loaded whose Text holds the raw contents.
func (l *FileLoader) Load(ctx context.Context, name string, r io.Reader) (Loaded, error) {
	out := Loaded{Name: name, Source: File}
	if isCSV(name) {
		out.Source = CSV
	}

	done := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
		done <- readResult{data: data, err: err}
	}()

	var res readResult
	select {
	case <-ctx.Done():
		return out, &core.ReadError{Name: name, Err: ctx.Err()}
	case res = <-done:
	}
	if res.err != nil {
		return out, &core.ReadError{Name: name, Err: res.err}
	}
	if int64(len(res.data)) > l.maxBytes {
		return out, &core.ReadError{Name: name, Err: fmt.Errorf("%w (%d bytes)", ErrTooLarge, l.maxBytes)}
	}

	out.Size = int64(len(res.data))
	raw := string(res.data)

	var (
		v   any
		err error
	)
	if out.Source == CSV {
		v, err = ParseCSV(raw)
	} else {
		v, err = decodeJSON(raw, File)
	}
	if err != nil {
		out.Text = raw
		return out, err
	}

	out.Value = v
	out.Text = Pretty(v, raw)
	return out, nil
}

// Pretty re-indents v as validated record JSON when possible and falls back
// to fallback otherwise, so the buffer still shows something sensible for
// values that will fail validation.
func Pretty(v any, fallback string) string {
	if rec, err := core.Validate(v); err == nil {
		return rec.Format()
	}
	return indentAny(v, fallback)
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
