package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"data": "{\"years\":[]}", "count": 42.5, "record": {"years": ["2020"]}}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if got := parser.Value("data"); got != `{"years":[]}` {
		t.Errorf("Value('data') = %q", got)
	}
	if got := parser.Value("count"); got != "42.5" {
		t.Errorf("Value('count') = %q, want '42.5'", got)
	}
	if got := parser.Value("record"); !strings.Contains(got, `"2020"`) {
		t.Errorf("Value('record') = %q, want re-encoded object", got)
	}
	if parser.Has("missing") {
		t.Error("Has('missing') should be false")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	form := url.Values{"data": {"  {\n  \"years\": []\n}\n"}, "name": {"form test"}}
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if got := parser.Value("data"); got != form.Get("data") {
		t.Errorf("Value('data') = %q, want it verbatim", got)
	}
	if got := parser.Value("name"); got != "form test" {
		t.Errorf("Value('name') = %q, want 'form test'", got)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Value("nonexistent"); val != "" {
		t.Errorf("Value('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	body := "data=" + strings.Repeat("x", maxFormBytes)
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Error("expected an error for an oversized body")
	}
}

func TestParseChartText(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantText   string
		wantStatus int
	}{
		{"present", "data=abc", "abc", 0},
		{"empty but present", "data=", "", 0},
		{"missing", "other=1", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			text, resp := ParseChartText(req)
			if tt.wantStatus == 0 {
				if resp != nil {
					t.Fatalf("unexpected error response")
				}
				if text != tt.wantText {
					t.Errorf("text = %q, want %q", text, tt.wantText)
				}
				return
			}
			if resp == nil {
				t.Fatal("expected an error response")
			}
			w := httptest.NewRecorder()
			resp.Write(w)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"HEAD allowed with multiple", http.MethodHead, []string{http.MethodGet, http.MethodHead}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequirePOSTAndGET(t *testing.T) {
	postReq := httptest.NewRequest(http.MethodPost, "/test", nil)
	if result := RequirePOST(postReq); result != nil {
		t.Error("RequirePOST should allow POST requests")
	}
	if result := RequireGET(postReq); result == nil {
		t.Error("RequireGET should reject POST requests")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/test", nil)
	if result := RequirePOST(getReq); result == nil {
		t.Error("RequirePOST should reject GET requests")
	}
	if result := RequireGET(getReq); result != nil {
		t.Error("RequireGET should allow GET requests")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  sal\x00ary\x07.json \n"); got != "salary.json" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
