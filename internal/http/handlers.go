package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"paychart/internal/app"
	"paychart/internal/chart"
	"paychart/internal/core"
	applog "paychart/internal/log"
	"paychart/internal/session"
	"paychart/internal/source"
	"paychart/internal/status"
)

// multipartOverhead is the slack allowed on top of the file limit for the
// multipart envelope.
const multipartOverhead = 64 << 10

// importLabel is shown in the file info after a Sheets import.
const importLabel = "Google Sheets"

// pageData feeds both index.html and the panel partial.
type pageData struct {
	Buffer        string
	Mode          string
	ToggleLabel   string
	Note          string
	FileInfo      string
	HasChart      bool
	ImportEnabled bool
	OptionJSON    string
	Notice        *status.Notice
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports 503 while templates are missing or the session
// store cannot be reached.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	checks := map[string]string{"templates": "ok", "sessions": "ok"}
	code := http.StatusOK
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		code = http.StatusServiceUnavailable
	}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			checks["sessions"] = "failed: " + err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	state := "ready"
	if code != http.StatusOK {
		state = "not_ready"
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": state,
		"checks": checks,
	})
}

// handleIndex renders the page. A new session starts with the sample
// loaded, like a first visit.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.templates == nil {
		s.log.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	sess, fresh, err := s.loadSession(w, r)
	if err != nil {
		s.storageFailure(w, r, applog.OpStartup, err)
		return
	}
	if fresh || (sess.Option == nil && sess.State.Buffer == "") {
		ctx := app.WithSessionID(r.Context(), sess.ID)
		out := s.pipeline.LoadSample(ctx, sess.State)
		sess = sess.Apply(out, s.now())
		if err := s.sessions.Save(ctx, sess); err != nil {
			s.storageFailure(w, r, applog.OpSample, err)
			return
		}
	}

	data := s.page(sess, s.reporter(sess.ID))
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.reqLog(r).ErrorContext(r.Context(), "Index template execution failed", applog.FieldError, err, "template", "index.html")
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	s.act(w, r, applog.OpSample, func(ctx context.Context, st app.State) app.Outcome {
		return s.pipeline.LoadSample(ctx, st)
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	text, resp := ParseChartText(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	s.act(w, r, applog.OpUpdate, func(ctx context.Context, st app.State) app.Outcome {
		return s.pipeline.UpdateFromText(ctx, st, text)
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	text, resp := ParseChartText(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	s.act(w, r, applog.OpToggle, func(ctx context.Context, st app.State) app.Outcome {
		return s.pipeline.ToggleMode(ctx, st, text)
	})
}

// handleUpload reads a multipart "file" field through the file loader.
// Oversized uploads still record the read failure but answer 413.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	sess, _, err := s.loadSession(w, r)
	if err != nil {
		s.storageFailure(w, r, applog.OpUpload, err)
		return
	}
	ctx := app.WithSessionID(r.Context(), sess.ID)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		if isTooLarge(err) {
			readErr := &core.ReadError{Name: "upload", Err: fmt.Errorf("%w (%d bytes)", source.ErrTooLarge, s.maxUploadBytes)}
			out := s.pipeline.LoadFile(ctx, sess.State, source.Loaded{}, readErr)
			s.commit(w, r.WithContext(ctx), applog.OpUpload, sess, out, http.StatusRequestEntityTooLarge)
			return
		}
		BadRequestError("Invalid upload").Write(w)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError("Missing file").Write(w)
		return
	}
	defer file.Close()

	name := sanitizeInput(header.Filename)
	s.reqLog(r).DebugContext(ctx, "Upload received",
		applog.FieldFileName, name,
		applog.FieldFileSize, header.Size)

	loaded, loadErr := s.loader.Load(ctx, name, file)
	out := s.pipeline.LoadFile(ctx, sess.State, loaded, loadErr)

	code := http.StatusOK
	if errors.Is(loadErr, source.ErrTooLarge) {
		code = http.StatusRequestEntityTooLarge
	}
	s.commit(w, r.WithContext(ctx), applog.OpUpload, sess, out, code)
}

// handleImport renders the salary range of the configured spreadsheet.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.importer == nil {
		NotFoundError("Google Sheets import is not configured").Write(w)
		return
	}
	s.act(w, r, applog.OpImport, func(ctx context.Context, st app.State) app.Outcome {
		cctx, cancel := context.WithTimeout(ctx, importTimeout)
		defer cancel()
		v, err := s.importer.ReadSalary(cctx)
		if err != nil {
			return s.pipeline.ImportFailed(ctx, st, err)
		}
		return s.pipeline.Import(ctx, st, v, importLabel)
	})
}

// handleOption returns the last chart option as JSON.
func (s *Server) handleOption(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	opt, ok := s.currentOption(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(opt)
}

// handlePNG draws the last chart option on the server.
func (s *Server) handlePNG(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	opt, ok := s.currentOption(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, *opt); err != nil {
		if errors.Is(err, chart.ErrTooFewPoints) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.sl.LogError(r.Context(), "PNG render failed", err, applog.ComponentChart, applog.OpRender, nil)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// currentOption writes 204 when the session has no chart yet.
func (s *Server) currentOption(w http.ResponseWriter, r *http.Request) (*chart.Option, bool) {
	sess, _, err := s.loadSession(w, r)
	if err != nil {
		s.storageFailure(w, r, applog.OpRender, err)
		return nil, false
	}
	if sess.Option == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil, false
	}
	return sess.Option, true
}

// act runs one transition against the caller's session and answers with
// the refreshed panel.
func (s *Server) act(w http.ResponseWriter, r *http.Request, op string, run func(context.Context, app.State) app.Outcome) {
	sess, _, err := s.loadSession(w, r)
	if err != nil {
		s.storageFailure(w, r, op, err)
		return
	}
	ctx := app.WithSessionID(r.Context(), sess.ID)
	out := run(ctx, sess.State)
	s.commit(w, r.WithContext(ctx), op, sess, out, http.StatusOK)
}

// commit stores the outcome and writes the panel with the chart and
// notice triggers.
func (s *Server) commit(w http.ResponseWriter, r *http.Request, op string, sess session.Session, out app.Outcome, code int) {
	sess = sess.Apply(out, s.now())
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		s.storageFailure(w, r, op, err)
		return
	}

	rep := s.reporter(sess.ID)
	if !out.Notice.IsZero() {
		rep.Show(out.Notice)
	}

	body, err := s.renderPanel(s.page(sess, rep))
	if err != nil {
		s.reqLog(r).ErrorContext(r.Context(), "Panel template execution failed", applog.FieldError, err, applog.FieldOperation, op)
		InternalServerError("Rendering failed").TriggerNotice(out.Notice).Write(w)
		return
	}

	NewHTMXResponse().
		Status(code).
		TriggerChartRender(out.Option).
		TriggerNotice(out.Notice).
		BodyHTML(body).
		Write(w)
}

func (s *Server) renderPanel(data pageData) ([]byte, error) {
	if s.templates == nil {
		return nil, errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "panel", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) page(sess session.Session, rep *status.Reporter) pageData {
	data := pageData{
		Buffer:        sess.State.Buffer,
		Mode:          sess.State.Mode.String(),
		ToggleLabel:   sess.State.Mode.ToggleLabel(),
		Note:          sess.Note,
		FileInfo:      sess.FileInfo,
		HasChart:      sess.Option != nil,
		ImportEnabled: s.importer != nil,
	}
	if sess.Option != nil {
		if b, err := json.Marshal(sess.Option); err == nil {
			data.OptionJSON = string(b)
		}
	}
	if n, ok := rep.Current(); ok {
		data.Notice = &n
	}
	return data
}

// loadSession returns the caller's session, starting a new one when the
// cookie is missing, malformed or names an expired session. fresh is true
// for new sessions.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (sess session.Session, fresh bool, err error) {
	if c, cerr := r.Cookie(SessionCookie); cerr == nil && session.ValidID(c.Value) {
		sess, err = s.sessions.Get(r.Context(), c.Value)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return session.Session{}, false, fmt.Errorf("load session: %w", err)
		}
	}

	sess = session.New()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, true, nil
}

func (s *Server) reporter(id string) *status.Reporter {
	rep, _, _ := s.reporters.GetOrCompute(id, func() (*status.Reporter, error) {
		return status.NewReporter(), nil
	})
	// Reporters live as long as the session keeps being used.
	s.reporters.Touch(id)
	return rep
}

func (s *Server) storageFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.sl.LogError(r.Context(), "Session storage failed", err, applog.ComponentSession, op, nil)
	InternalServerError("Session storage is unavailable").
		TriggerErrorNotification("Session storage is unavailable").
		Write(w)
}

// reqLog returns the request-scoped logger set by the trace middleware, so
// handler lines carry the request id. Outside the middleware it falls back
// to the server logger.
func (s *Server) reqLog(r *http.Request) *applog.Logger {
	if _, ok := r.Context().Value(applog.LoggerContextKey).(*applog.Logger); !ok {
		return s.log
	}
	return applog.FromContext(r.Context()).WithComponent(applog.ComponentHTTP)
}
