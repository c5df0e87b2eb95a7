package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hcal/internal/blob"
	"hcal/internal/config"
	"hcal/internal/grid"
	"hcal/internal/model"
	"hcal/internal/store"
)

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *store.Store) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	n := 0
	st := store.New(blob.NewMemory(), store.WithIDGenerator(func() (string, error) {
		n++
		return "ev-" + string(rune('0'+n)), nil
	}))
	proj := grid.NewProjector(time.UTC, nil)
	proj.Now = func() time.Time { return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return NewServer(cfg, st, proj), st
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing generated X-Request-ID")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	s, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestCreateAndRenderMonth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/events",
		`{"title":" 중간고사 ","date":"2025-03-20","category":"exam","isDday":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/events = %d %s", rec.Code, rec.Body.String())
	}
	created := decode[eventResponse](t, rec)
	if created.Title != "중간고사" || created.Category != model.CategoryExam || !created.IsDday {
		t.Errorf("created = %+v", created)
	}
	if created.Tag != "event-exam" {
		t.Errorf("tag = %q", created.Tag)
	}

	rec = do(t, h, http.MethodGet, "/api/month?year=2025&month=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/month = %d", rec.Code)
	}
	m := decode[grid.MonthModel](t, rec)
	if m.Label != "2025년 3월" || len(m.Cells) != grid.MonthCells {
		t.Fatalf("month = %q with %d cells", m.Label, len(m.Cells))
	}
	var found, today bool
	for _, c := range m.Cells {
		if c.Key == "2025-03-20" && len(c.Events) == 1 {
			found = true
		}
		if c.Key == "2025-03-15" && c.Today {
			today = true
		}
	}
	if !found {
		t.Error("event not bucketed on 2025-03-20")
	}
	if !today {
		t.Error("2025-03-15 not marked today")
	}
}

func TestCreateDefaultsToExam(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/events", `{"title":"x","date":"2025-03-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST = %d", rec.Code)
	}
	if ev := decode[eventResponse](t, rec); ev.Category != model.CategoryExam {
		t.Errorf("category = %q, want %q", ev.Category, model.CategoryExam)
	}
}

func TestCreateValidation(t *testing.T) {
	s, st := newTestServer(t, nil)
	h := s.Handler()

	for _, tc := range []struct {
		body   string
		code   int
		reason string
	}{
		{`{"title":"  ","date":"2025-03-01"}`, http.StatusBadRequest, "missing title"},
		{`{"title":"x"}`, http.StatusBadRequest, "missing date"},
		{`{"title":"x","date":"soon"}`, http.StatusBadRequest, "invalid date"},
		{`{"title":"x","date":"2025-03-01","category":"party"}`, http.StatusBadRequest, ""},
		{`not json`, http.StatusBadRequest, ""},
	} {
		rec := do(t, h, http.MethodPost, "/api/events", tc.body)
		if rec.Code != tc.code {
			t.Errorf("POST %s = %d, want %d", tc.body, rec.Code, tc.code)
			continue
		}
		if tc.reason != "" {
			if got := decode[validationResponse](t, rec); string(got.Reason) != tc.reason {
				t.Errorf("POST %s reason = %q, want %q", tc.body, got.Reason, tc.reason)
			}
		}
	}
	if n := len(st.LoadAll(t.Context())); n != 0 {
		t.Errorf("store has %d events after rejected posts", n)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	s, st := newTestServer(t, nil)
	h := s.Handler()
	ev, err := st.Create(t.Context(), store.Draft{Title: "알바", Date: "2025-03-03", Category: model.CategoryJob})
	if err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodGet, "/api/events/"+ev.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET = %d", rec.Code)
	}
	if got := decode[eventResponse](t, rec); got.Meta != "2025-03-03 · 알바" {
		t.Errorf("meta = %q", got.Meta)
	}

	rec = do(t, h, http.MethodPut, "/api/events/"+ev.ID, `{"date":"2025-03-04","time":"18:00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT = %d %s", rec.Code, rec.Body.String())
	}
	got, _ := st.Get(t.Context(), ev.ID)
	if got.Title != "알바" || got.Date != "2025-03-04" || got.Time != "18:00" || got.Category != model.CategoryJob {
		t.Errorf("after PUT = %+v", got)
	}

	if rec := do(t, h, http.MethodPut, "/api/events/nope", `{"title":"x"}`); rec.Code != http.StatusNotFound {
		t.Errorf("PUT unknown = %d, want 404", rec.Code)
	}

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodDelete, "/api/events/"+ev.ID, ""); rec.Code != http.StatusNoContent {
			t.Errorf("DELETE #%d = %d, want 204", i, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodGet, "/api/events/"+ev.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
}

func TestWeekAndYear(t *testing.T) {
	s, st := newTestServer(t, nil)
	h := s.Handler()
	st.Create(t.Context(), store.Draft{Title: "여행", Date: "2025-03-12", Time: "15:00"})

	rec := do(t, h, http.MethodGet, "/api/week?start=2025-03-12", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/week = %d", rec.Code)
	}
	w := decode[grid.WeekModel](t, rec)
	if w.Start.String() != "2025-03-09" || len(w.Days) != grid.WeekDays {
		t.Fatalf("week start %v, %d days", w.Start, len(w.Days))
	}
	if evs := w.Days[3].Slots[2].Events; len(evs) != 1 {
		t.Errorf("Wednesday 15:00 has %d events, want 1", len(evs))
	}

	if rec := do(t, h, http.MethodGet, "/api/week?start=tomorrow", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad start = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/year", "")
	y := decode[grid.YearModel](t, rec)
	if y.Year != 2025 || len(y.Months) != 12 {
		t.Errorf("year = %d with %d months", y.Year, len(y.Months))
	}

	if rec := do(t, h, http.MethodGet, "/api/year?year=twenty", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad year = %d, want 400", rec.Code)
	}
}

func TestMini(t *testing.T) {
	s, st := newTestServer(t, nil)
	st.Create(t.Context(), store.Draft{Title: "x", Date: "2025-03-15"})

	m := decode[grid.MonthModel](t, do(t, s.Handler(), http.MethodGet, "/api/mini", ""))
	if m.Month != time.March {
		t.Errorf("mini month = %v", m.Month)
	}
	for _, c := range m.Cells {
		if len(c.Events) != 0 {
			t.Fatalf("mini cell %s has events", c.Key)
		}
	}
}

func TestCategories(t *testing.T) {
	s, _ := newTestServer(t, nil)
	got := decode[[]categoryDTO](t, do(t, s.Handler(), http.MethodGet, "/api/categories", ""))
	if len(got) != len(model.Categories) || got[2].Tag != "event-alba" {
		t.Errorf("categories = %+v", got)
	}
}

func TestExportImport(t *testing.T) {
	src, st := newTestServer(t, nil)
	st.Create(t.Context(), store.Draft{Title: "생일", Date: "2025-05-05", Category: model.CategoryBirthday})

	rec := do(t, src.Handler(), http.MethodGet, "/api/export.ics", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") {
		t.Fatalf("export = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}

	dst, dstStore := newTestServer(t, nil)
	rec = do(t, dst.Handler(), http.MethodPost, "/api/import", rec.Body.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("import = %d %s", rec.Code, rec.Body.String())
	}
	if res := decode[store.ImportResult](t, rec); res.Added != 1 {
		t.Errorf("import result = %+v", res)
	}
	list := dstStore.LoadAll(t.Context())
	if len(list) != 1 || list[0].Category != model.CategoryBirthday || list[0].Date != "2025-05-05" {
		t.Errorf("imported = %+v", list)
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "me", Password: "pw"}
	s, _ := newTestServer(t, cfg)
	h := s.Handler()

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("/health with auth = %d, want 200", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/events", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("me", "pw")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated = %d, want 200", rec.Code)
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("abc", "abc") || secureCompare("abc", "abd") || secureCompare("a", "ab") {
		t.Error("secureCompare mismatch")
	}
}
