package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paychart/internal/chart"
	"paychart/internal/status"
)

func decodeTriggers(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	raw := w.Header().Get("HX-Trigger")
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	return out
}

func TestHTMXResponseBuilder_PanelBody(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusRequestEntityTooLarge).
		BodyHTML([]byte(`<section id="panel"></section>`)).
		Write(w)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Status code = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Body.String() != `<section id="panel"></section>` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestHTMXResponseBuilder_ChartAndNotice(t *testing.T) {
	w := httptest.NewRecorder()

	opt := chart.Option{Title: chart.Title{Text: "Annual Salary Growth"}}
	NewHTMXResponse().
		TriggerChartRender(&opt).
		TriggerNotice(status.Succeeded("Chart updated successfully!")).
		Write(w)

	triggers := decodeTriggers(t, w)

	var got chart.Option
	if err := json.Unmarshal(triggers[EventChartRender], &got); err != nil {
		t.Fatalf("decode chart trigger: %v", err)
	}
	if got.Title.Text != "Annual Salary Growth" {
		t.Errorf("title = %q", got.Title.Text)
	}

	var n notification
	if err := json.Unmarshal(triggers[EventShowNotification], &n); err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	want := notification{Type: NotificationSuccess, Message: "Chart updated successfully!", DurationMs: 5000}
	if n != want {
		t.Errorf("notification = %+v, want %+v", n, want)
	}
}

func TestHTMXResponseBuilder_SkipsEmptyTriggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerChartRender(nil).
		TriggerNotice(status.Notice{}).
		Write(w)

	if got := w.Header().Get("HX-Trigger"); got != "" {
		t.Errorf("HX-Trigger = %q, want none", got)
	}
}

func TestHTMXResponseBuilder_LaterNoticeWins(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerNotice(status.Succeeded("first")).
		TriggerNotice(status.Failed("Update chart failed: second")).
		Write(w)

	var n notification
	if err := json.Unmarshal(decodeTriggers(t, w)[EventShowNotification], &n); err != nil {
		t.Fatal(err)
	}
	if n.Type != NotificationError || n.Message != "Update chart failed: second" {
		t.Errorf("notification = %+v", n)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{"bad request", BadRequestError("Missing field: data"), http.StatusBadRequest, `<div class="error">Missing field: data</div>`},
		{"internal server error", InternalServerError("Rendering failed"), http.StatusInternalServerError, `<div class="error">Rendering failed</div>`},
		{"not found", NotFoundError("Google Sheets import is not configured"), http.StatusNotFound, `<div class="error">Google Sheets import is not configured</div>`},
		{"escapes html", BadRequestError("<script>alert('x')</script>"), http.StatusBadRequest, `<div class="error">&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;</div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("GET, HEAD").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w.Header().Get("Allow") != "GET, HEAD" {
		t.Errorf("Allow header = %q", w.Header().Get("Allow"))
	}
}
