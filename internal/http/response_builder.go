// Package http provides HTTP server and handler implementations.
//
// This file builds htmx responses: the panel partial as the body and the
// client events (chart redraw, notification) in the HX-Trigger header.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"paychart/internal/chart"
	"paychart/internal/status"
)

// Client-side event names carried in HX-Trigger.
const (
	EventChartRender      = "chart:render"
	EventShowNotification = "show-notification"
)

// NotificationType is the CSS class the browser gives a notice.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// notification is the detail of a show-notification event.
type notification struct {
	Type       NotificationType `json:"type"`
	Message    string           `json:"message"`
	DurationMs int              `json:"duration"`
}

// HTMXResponseBuilder collects status, headers, triggers and body, then
// writes them in one go.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    http.Header
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(http.Header),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a client event; a later call with the same name wins.
func (b *HTMXResponseBuilder) Trigger(name string, detail any) *HTMXResponseBuilder {
	b.triggers[name] = detail
	return b
}

// TriggerChartRender hands opt to the browser chart. A nil option leaves
// the chart as it is.
func (b *HTMXResponseBuilder) TriggerChartRender(opt *chart.Option) *HTMXResponseBuilder {
	if opt == nil {
		return b
	}
	return b.Trigger(EventChartRender, opt)
}

// TriggerNotice forwards a transition notice. Empty notices are skipped.
func (b *HTMXResponseBuilder) TriggerNotice(n status.Notice) *HTMXResponseBuilder {
	if n.IsZero() {
		return b
	}
	kind := NotificationSuccess
	if n.Kind == status.Error {
		kind = NotificationError
	}
	return b.notify(kind, n.Message)
}

// TriggerErrorNotification shows message as an error notice.
func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.notify(NotificationError, message)
}

func (b *HTMXResponseBuilder) notify(kind NotificationType, message string) *HTMXResponseBuilder {
	return b.Trigger(EventShowNotification, notification{
		Type:       kind,
		Message:    message,
		DurationMs: int(status.DismissAfter.Milliseconds()),
	})
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// BodyHTML sets an HTML body.
func (b *HTMXResponseBuilder) BodyHTML(html []byte) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	b.body = html
	return b
}

// Write sends the built response. Triggers that fail to encode are
// dropped rather than corrupting the header.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.headers {
		for _, v := range values {
			w.Header().Set(name, v)
		}
	}

	if len(b.triggers) > 0 {
		if raw, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(raw))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse answers with an escaped error fragment.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML([]byte(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`))
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
