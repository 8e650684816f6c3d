// Package source adapts user input (the text buffer, uploaded files) into
// decoded JSON values ready for core.Validate.
package source

import (
	"encoding/json"
	"strings"

	"paychart/internal/core"
)

// Source names carried by ParseError and by render events.
const (
	Text   = "text"
	File   = "file"
	CSV    = "csv"
	Sample = "sample"
	Sheets = "sheets"
)

// ParseText decodes the text buffer as JSON.
func ParseText(text string) (any, error) {
	return decodeJSON(text, Text)
}

func decodeJSON(text, src string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimPrefix(text, "\ufeff")), &v); err != nil {
		return nil, &core.ParseError{Source: src, Err: err}
	}
	return v, nil
}

func indentAny(v any, fallback string) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fallback
	}
	return string(b)
}
