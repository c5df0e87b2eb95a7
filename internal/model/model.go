package model

import (
	"strings"
	"time"

	"hcal/internal/dates"
)

// Event is the only persisted entity: one user-created calendar entry.
// Records are treated as values; a change is always a full replace by ID.
type Event struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Category Category `json:"category"`
	Memo     string   `json:"memo"`
	IsDday   bool     `json:"isDday"`

	// Time is one of the configured week slots, or empty for "first slot".
	Time string `json:"time,omitempty"`
}

// Day parses the record's date into a calendar day on the local wall clock.
func (e Event) Day() (dates.Date, bool) {
	return e.DayIn(nil)
}

// DayIn parses the record's date into its calendar day on loc's wall clock.
// Dates with an offset are converted into loc first; plain dates are not.
func (e Event) DayIn(loc *time.Location) (dates.Date, bool) {
	d, err := dates.ParseIn(e.Date, loc)
	if err != nil {
		return dates.Date{}, false
	}
	return d, true
}

// Visible reports whether the record can be placed on a grid: it needs a
// title and a parseable date.
func (e Event) Visible() bool {
	if strings.TrimSpace(e.Title) == "" {
		return false
	}
	_, ok := e.Day()
	return ok
}

// Normalize fills defaults for fields older or hand-edited blobs may lack.
func (e Event) Normalize() Event {
	e.Category = ParseCategory(string(e.Category))
	return e
}

// DefaultWeekSlots is the week view's time-slot column set.
var DefaultWeekSlots = []string{"09:00", "12:00", "15:00", "18:00", "21:00", "24:00"}
