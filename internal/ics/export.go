// Package ics converts the event collection to and from iCalendar.
//
// Every record becomes an all-day VEVENT. Fields iCalendar has no slot for
// travel in X-HCAL-* properties so an export re-imports losslessly.
package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"hcal/internal/dates"
	appLog "hcal/internal/log"
	"hcal/internal/model"
)

const (
	productID = "-//hcal//personal calendar//KO"
	uidSuffix = "@hcal"

	propDday     = ical.ComponentProperty("X-HCAL-DDAY")
	propSlot     = ical.ComponentProperty("X-HCAL-TIME")
	propCategory = ical.ComponentProperty("X-HCAL-CATEGORY")
)

// Export serializes list as a VCALENDAR. Each record is written on its day
// as seen from loc (nil means time.Local). Records without a title or a valid
// date are skipped.
func Export(list []model.Event, stamp time.Time, loc *time.Location) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	skipped := 0
	for _, ev := range list {
		d, ok := ev.DayIn(loc)
		if !ok || strings.TrimSpace(ev.Title) == "" {
			skipped++
			continue
		}

		ve := cal.AddEvent(ev.ID + uidSuffix)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(ev.Title)
		if ev.Memo != "" {
			ve.SetDescription(ev.Memo)
		}
		// All-day values are floating dates; carry them as UTC midnight so
		// the library writes the written day unchanged.
		ve.SetAllDayStartAt(d.In(time.UTC))
		ve.SetAllDayEndAt(dates.AddDays(d, 1).In(time.UTC))
		ve.SetProperty(ical.ComponentPropertyCategories, ev.Category.English())
		ve.SetProperty(propCategory, string(ev.Category))
		if ev.IsDday {
			ve.SetProperty(propDday, "TRUE")
		}
		if ev.Time != "" {
			ve.SetProperty(propSlot, ev.Time)
		}
	}

	if skipped > 0 {
		appLog.Warn("ics export: skipped records without title or valid date", "count", skipped)
	}
	return cal.Serialize()
}
