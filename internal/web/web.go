package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hcal/internal/config"
	"hcal/internal/dates"
	"hcal/internal/grid"
	"hcal/internal/ics"
	appLog "hcal/internal/log"
	"hcal/internal/model"
	"hcal/internal/session"
	"hcal/internal/store"
	"hcal/internal/view"
)

// EventStore is what the API needs from the event store. *store.Store
// satisfies it.
type EventStore interface {
	LoadAll(ctx context.Context) []model.Event
	Get(ctx context.Context, id string) (model.Event, bool)
	Create(ctx context.Context, d store.Draft) (model.Event, error)
	Update(ctx context.Context, id string, p store.Patch) (model.Event, bool, error)
	Remove(ctx context.Context, id string) (bool, error)
	Import(ctx context.Context, incoming []model.Event) (store.ImportResult, error)
}

// maxImportBody caps an uploaded calendar.
const maxImportBody = 8 << 20

// Server exposes the render models and event CRUD as a JSON API.
type Server struct {
	cfg   *config.Config
	store EventStore
	proj  *grid.Projector
	mux   *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st EventStore, proj *grid.Projector) *Server {
	s := &Server{
		cfg:   cfg,
		store: st,
		proj:  proj,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return requestIDMiddleware(h)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// 빈 사용자명 또는 비밀번호가 설정된 경우에는 비활성화로 취급한다.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health 는 항상 무인증으로 노출한다.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="hcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware echoes the caller's X-Request-ID or assigns a new one,
// and logs each request with it.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r)
		appLog.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// ListenAndServe serves the API on cfg.Listen until ctx is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/week", s.handleWeek)
	s.mux.HandleFunc("GET /api/year", s.handleYear)
	s.mux.HandleFunc("GET /api/mini", s.handleMini)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	s.mux.HandleFunc("GET /api/categories", s.handleCategories)
	s.mux.HandleFunc("GET /api/export.ics", s.handleExport)
	s.mux.HandleFunc("POST /api/import", s.handleImport)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleMonth renders a month grid.
//
// GET /api/month?year=2025&month=3
//   - year, month: 생략하면 오늘이 속한 달
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	c := view.NewMonth(s.proj, s.store)
	y, m := c.Cursor()
	q := r.URL.Query()
	year, ok := parseIntParam(w, q.Get("year"), y, "year")
	if !ok {
		return
	}
	month, ok := parseIntParam(w, q.Get("month"), int(m), "month")
	if !ok {
		return
	}
	c.Goto(year, time.Month(month))
	writeJSON(w, http.StatusOK, c.Render(r.Context()))
}

// handleWeek renders the week containing start (YYYY-MM-DD, default today).
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	c := view.NewWeek(s.proj, s.store)
	if v := r.URL.Query().Get("start"); v != "" {
		d, err := dates.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date")
			return
		}
		c.Goto(d)
	}
	writeJSON(w, http.StatusOK, c.Render(r.Context()))
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	c := view.NewYear(s.proj, s.store)
	year, ok := parseIntParam(w, r.URL.Query().Get("year"), c.Cursor(), "year")
	if !ok {
		return
	}
	c.Goto(year)
	writeJSON(w, http.StatusOK, c.Render(r.Context()))
}

// handleMini renders an event-free month for the dashboard mini calendar.
func (s *Server) handleMini(w http.ResponseWriter, r *http.Request) {
	today := s.proj.Today()
	q := r.URL.Query()
	year, ok := parseIntParam(w, q.Get("year"), today.Year, "year")
	if !ok {
		return
	}
	month, ok := parseIntParam(w, q.Get("month"), int(today.Month), "month")
	if !ok {
		return
	}
	y, m := dates.AddMonths(year, time.Month(month), 0)
	writeJSON(w, http.StatusOK, s.proj.Mini(y, m))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.LoadAll(r.Context()))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.store.Get(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Event: ev, Tag: ev.Category.DisplayTag(), Meta: session.Meta(ev)})
}

// eventRequest is the body of POST and PUT /api/events. Absent fields keep
// their current value on PUT.
type eventRequest struct {
	Title    *string `json:"title"`
	Date     *string `json:"date"`
	Category *string `json:"category"`
	Memo     *string `json:"memo"`
	IsDday   *bool   `json:"isDday"`
	Time     *string `json:"time"`
}

// eventResponse decorates a record with its presentation tag and subtitle.
type eventResponse struct {
	model.Event
	Tag  string `json:"tag"`
	Meta string `json:"meta"`
}

type validationResponse struct {
	Error  string         `json:"error"`
	Reason session.Reason `json:"reason"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e := session.NewEdit(s.store)
	if !applyForm(w, e, req) {
		return
	}
	s.submit(w, r, e, req, model.Event{})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ev, ok := s.store.Get(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	e := session.NewEdit(s.store)
	e.BeginEdit(ev)
	if !applyForm(w, e, req) {
		return
	}
	s.submit(w, r, e, req, ev)
}

// applyForm copies category, D-day and time into the session.
func applyForm(w http.ResponseWriter, e *session.Edit, req eventRequest) bool {
	if req.Category != nil {
		c, ok := model.CategoryFromName(*req.Category)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown category")
			return false
		}
		e.SetCategory(c)
	}
	if req.IsDday != nil && *req.IsDday != e.Dday {
		e.ToggleDday()
	}
	if req.Time != nil {
		e.Time = strings.TrimSpace(*req.Time)
	}
	return true
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, e *session.Edit, req eventRequest, seed model.Event) {
	title, date, memo := seed.Title, seed.Date, seed.Memo
	if req.Title != nil {
		title = *req.Title
	}
	if req.Date != nil {
		date = *req.Date
	}
	if req.Memo != nil {
		memo = *req.Memo
	}

	res := e.Submit(r.Context(), title, date, memo)
	switch {
	case res.Reason != "":
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: res.Reason.Message(), Reason: res.Reason})
	case res.Err != nil:
		appLog.Error("api events: save failed", res.Err)
		writeError(w, http.StatusInternalServerError, "failed to save event")
	case res.Outcome == session.Vanished:
		writeError(w, http.StatusNotFound, "event not found")
	case res.Outcome == session.Created:
		writeJSON(w, http.StatusCreated, eventResponse{Event: res.Event, Tag: res.Event.Category.DisplayTag(), Meta: session.Meta(res.Event)})
	default:
		writeJSON(w, http.StatusOK, eventResponse{Event: res.Event, Tag: res.Event.Category.DisplayTag(), Meta: session.Meta(res.Event)})
	}
}

// handleDeleteEvent is idempotent: unknown ids also answer 204.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.store.Remove(r.Context(), id)
	if err != nil {
		appLog.Error("api events: delete failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	appLog.Debug("api events: delete", "id", id, "removed", removed)
	w.WriteHeader(http.StatusNoContent)
}

type categoryDTO struct {
	Name    string `json:"name"`
	English string `json:"english"`
	Tag     string `json:"tag"`
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	out := make([]categoryDTO, 0, len(model.Categories))
	for _, c := range model.Categories {
		out = append(out, categoryDTO{Name: string(c), English: c.English(), Tag: c.DisplayTag()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	body := ics.Export(s.store.LoadAll(r.Context()), time.Now(), s.proj.Location)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="hcal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// handleImport merges an uploaded VCALENDAR body into the collection.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	incoming, err := ics.Parse(http.MaxBytesReader(w, r.Body, maxImportBody), s.proj.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid calendar")
		return
	}
	res, err := s.store.Import(r.Context(), incoming)
	if err != nil {
		appLog.Error("api import: save failed", err)
		writeError(w, http.StatusInternalServerError, "failed to import")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// parseIntParam returns def for an empty value and answers 400 itself on a
// malformed one.
func parseIntParam(w http.ResponseWriter, v string, def int, name string) (int, bool) {
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
