package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"hcal/internal/dates"
	appLog "hcal/internal/log"
	"hcal/internal/model"
)

const (
	// expandYears bounds how far past DTSTART an open-ended rule is unrolled.
	expandYears = 2

	// maxOccurrences caps the records one VEVENT may produce.
	maxOccurrences = 400
)

var errOccurrenceCap = errors.New("max occurrences reached")

// expand unrolls rule from start into one record per distinct day. The first
// occurrence keeps base.ID; later ones get a date suffix so a re-import
// replaces them instead of piling up copies. Days in skip are dropped.
func expand(base model.Event, start dates.Date, rule string, skip map[dates.Date]bool) ([]model.Event, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("bad RRULE %q: %w", rule, err)
	}
	opt.Dtstart = start.In(time.UTC)
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("bad RRULE %q: %w", rule, err)
	}

	end := opt.Dtstart.AddDate(expandYears, 0, 0)
	seen := make(map[dates.Date]bool)
	out := make([]model.Event, 0)

	next := r.Iterator()
	for t, ok := next(); ok && t.Before(end); t, ok = next() {
		d := dates.FromTime(t)
		if seen[d] || skip[d] {
			continue
		}
		seen[d] = true

		if len(out) == maxOccurrences {
			appLog.Error("ics import: truncated recurrence", errOccurrenceCap,
				"uid", base.ID,
				"cap", maxOccurrences,
			)
			break
		}

		ev := base
		ev.Date = dates.Key(d)
		if d != start && base.ID != "" {
			ev.ID = base.ID + "-" + d.In(time.UTC).Format("20060102")
		}
		out = append(out, ev)
	}
	return out, nil
}

// exceptionDays collects the EXDATE days of ve as seen from loc.
func exceptionDays(ve *ical.VEvent, loc *time.Location) map[dates.Date]bool {
	skip := make(map[dates.Date]bool)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, v := range strings.Split(p.Value, ",") {
			if d, err := startDay(v, loc); err == nil {
				skip[d] = true
			}
		}
	}
	return skip
}
