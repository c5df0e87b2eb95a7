package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hcal/internal/model"
)

func TestExportParseRoundTrip(t *testing.T) {
	list := []model.Event{
		{ID: "ev-a", Title: "중간고사", Date: "2025-04-21", Category: model.CategoryExam, Memo: "공학관 301", IsDday: true},
		{ID: "ev-b", Title: "알바", Date: "2025-04-22", Category: model.CategoryJob, Time: "18:00"},
		{ID: "ev-c", Title: "산책", Date: "2025-12-31", Category: model.CategoryDaily},
	}

	out := Export(list, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "DTSTART;VALUE=DATE:20250421") {
		t.Fatalf("unexpected export:\n%s", out)
	}

	got, err := Parse(strings.NewReader(out), time.UTC)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != len(list) {
		t.Fatalf("parsed %d events, want %d", len(got), len(list))
	}
	for i := range list {
		if got[i] != list[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], list[i])
		}
	}
}

func TestExportSkipsInvalid(t *testing.T) {
	out := Export([]model.Event{
		{ID: "bad", Title: "x", Date: "nope"},
		{ID: "blank", Title: "", Date: "2025-01-01"},
	}, time.Now(), time.UTC)
	if strings.Contains(out, "BEGIN:VEVENT") {
		t.Errorf("invalid records exported:\n%s", out)
	}
}

const foreignCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:abc@example.com\r\n" +
	"SUMMARY:Flight\r\n" +
	"CATEGORIES:Travel,Trip\r\n" +
	"DTSTART:20250314T200000Z\r\n" +
	"DTEND:20250314T230000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:def@example.com\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART;TZID=Asia/Seoul:20250317T093000\r\n" +
	"RRULE:FREQ=DAILY;COUNT=3\r\n" +
	"EXDATE;TZID=Asia/Seoul:20250318T093000\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:nosummary@example.com\r\n" +
	"DTSTART;VALUE=DATE:20250318\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseForeign(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	got, err := Parse(strings.NewReader(foreignCalendar), kst)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("parsed %d events, want 3: %+v", len(got), got)
	}

	flight := got[0]
	if flight.ID != "abc@example.com" || flight.Date != "2025-03-15" || flight.Category != model.CategoryTrip {
		t.Errorf("flight = %+v", flight)
	}
	standup := got[1]
	if standup.ID != "def@example.com" || standup.Date != "2025-03-17" || standup.Category != model.CategoryDaily {
		t.Errorf("standup = %+v", standup)
	}
	if again := got[2]; again.ID != "def@example.com-20250319" || again.Date != "2025-03-19" || again.Title != "Standup" {
		t.Errorf("standup repeat = %+v", again)
	}
}

func recurringCalendar(dtstart, rule string) string {
	return "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//test//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:rep@example.com\r\n" +
		"SUMMARY:Repeat\r\n" +
		"DTSTART;VALUE=DATE:" + dtstart + "\r\n" +
		"RRULE:" + rule + "\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
}

func TestParseRecurrence(t *testing.T) {
	for _, tc := range []struct {
		name  string
		rule  string
		count int
		last  string
	}{
		{"weekly until year end", "FREQ=WEEKLY;UNTIL=20251231T000000Z", 53, "2025-12-31"},
		{"hourly collapses to days", "FREQ=HOURLY;COUNT=30", 2, "2025-01-02"},
		{"open daily hits cap", "FREQ=DAILY", maxOccurrences, "2026-02-04"},
		{"monthly bounded by window", "FREQ=MONTHLY", 24, "2026-12-01"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(recurringCalendar("20250101", tc.rule)), time.UTC)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(got) != tc.count {
				t.Fatalf("parsed %d events, want %d", len(got), tc.count)
			}
			if got[0].ID != "rep@example.com" || got[0].Date != "2025-01-01" {
				t.Errorf("first = %+v", got[0])
			}
			if last := got[len(got)-1]; last.Date != tc.last {
				t.Errorf("last date = %s, want %s", last.Date, tc.last)
			}
			ids := make(map[string]bool, len(got))
			for _, ev := range got {
				if ids[ev.ID] {
					t.Fatalf("duplicate id %q", ev.ID)
				}
				ids[ev.ID] = true
			}
		})
	}
}

func TestParseBadRuleKeepsFirst(t *testing.T) {
	got, err := Parse(strings.NewReader(recurringCalendar("20250101", "FREQ=SOMETIMES")), time.UTC)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 || got[0].Date != "2025-01-01" || got[0].ID != "rep@example.com" {
		t.Errorf("parsed = %+v", got)
	}
}

func TestExportUsesLocalDay(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	list := []model.Event{{ID: "late", Title: "밤 비행", Date: "2025-03-15T23:30:00Z", Category: model.CategoryTrip}}

	out := Export(list, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), kst)
	if !strings.Contains(out, "DTSTART;VALUE=DATE:20250316") {
		t.Errorf("export in KST:\n%s", out)
	}
	out = Export(list, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	if !strings.Contains(out, "DTSTART;VALUE=DATE:20250315") {
		t.Errorf("export in UTC:\n%s", out)
	}
}

func TestStartDay(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"20250315", "2025-03-15", false},
		{"20250315T235900", "2025-03-15", false},
		{"20250315T160000Z", "2025-03-16", false},
		{"2025", "", true},
		{"2025AB15", "", true},
	} {
		d, err := startDay(tc.in, time.FixedZone("KST", 9*3600))
		if (err != nil) != tc.wantErr {
			t.Errorf("startDay(%q) err = %v", tc.in, err)
			continue
		}
		if !tc.wantErr && d.String() != tc.want {
			t.Errorf("startDay(%q) = %s, want %s", tc.in, d, tc.want)
		}
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cal.ics" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		w.Write([]byte(foreignCalendar))
	}))
	defer srv.Close()

	f := NewFetcher()
	body, err := f.Fetch(context.Background(), srv.URL+"/cal.ics")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != foreignCalendar {
		t.Errorf("body mismatch")
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("Fetch of 404 should fail")
	}
	if _, err := f.Fetch(context.Background(), ""); err == nil {
		t.Error("Fetch of empty url should fail")
	}
}

func TestRedactURL(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"https://example.com/private.ics?token=abcd", "https://example.com/...(redacted)"},
		{"https://example.com", "https://example.com/...(redacted)"},
		{"not a url", "ics://...(redacted)"},
	} {
		if got := redactURL(tc.in); got != tc.want {
			t.Errorf("redactURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
