package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"hcal/internal/dates"
	appLog "hcal/internal/log"
	"hcal/internal/model"
)

// Parse reads VEVENTs from r into event records. loc is the wall clock UTC
// timestamps are converted into before taking their day; nil means
// time.Local. A VEVENT with an RRULE becomes one record per occurrence day.
// VEVENTs without a summary or start are skipped.
func Parse(r io.Reader, loc *time.Location) ([]model.Event, error) {
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ics: parse calendar: %w", err)
	}

	out := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		evs, perr := parseVEvent(ve, loc)
		if perr != nil {
			appLog.Warn("ics import: skipping vevent", "err", perr.Error())
			continue
		}
		out = append(out, evs...)
	}

	appLog.Info("ics import parsed", "event_count", len(out))
	return out, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) ([]model.Event, error) {
	var ev model.Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.ID = strings.TrimSuffix(strings.TrimSpace(p.Value), uidSuffix)
	}

	p := ve.GetProperty(ical.ComponentPropertySummary)
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return nil, errors.New("missing SUMMARY")
	}
	ev.Title = strings.TrimSpace(p.Value)

	dt := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dt == nil {
		return nil, errors.New("missing DTSTART")
	}
	d, err := startDay(dt.Value, loc)
	if err != nil {
		return nil, err
	}
	ev.Date = dates.Key(d)

	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Memo = p.Value
	}

	ev.Category = model.DefaultCategory
	if p := ve.GetProperty(propCategory); p != nil {
		ev.Category = model.ParseCategory(p.Value)
	} else if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		for _, name := range strings.Split(p.Value, ",") {
			if c, ok := model.CategoryFromName(name); ok {
				ev.Category = c
				break
			}
		}
	}

	if p := ve.GetProperty(propDday); p != nil {
		ev.IsDday = strings.EqualFold(strings.TrimSpace(p.Value), "TRUE")
	}
	if p := ve.GetProperty(propSlot); p != nil {
		ev.Time = strings.TrimSpace(p.Value)
	}

	rule := ve.GetProperty(ical.ComponentPropertyRrule)
	if rule == nil {
		return []model.Event{ev}, nil
	}
	evs, err := expand(ev, d, rule.Value, exceptionDays(ve, loc))
	if err != nil {
		appLog.Warn("ics import: keeping first occurrence only", "uid", ev.ID, "err", err.Error())
		return []model.Event{ev}, nil
	}
	return evs, nil
}

// startDay reads the calendar day of a DTSTART value. Dates and floating or
// TZID-qualified date-times keep their written day; UTC date-times are
// converted into loc first.
func startDay(v string, loc *time.Location) (dates.Date, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return dates.Date{}, fmt.Errorf("bad DTSTART %q: %w", v, err)
		}
		return dates.FromTime(t.In(loc)), nil
	}
	if len(v) < 8 {
		return dates.Date{}, fmt.Errorf("bad DTSTART %q", v)
	}
	t, err := time.Parse("20060102", v[:8])
	if err != nil {
		return dates.Date{}, fmt.Errorf("bad DTSTART %q: %w", v, err)
	}
	return dates.FromTime(t), nil
}
