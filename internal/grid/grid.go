// Package grid projects the event collection onto month, week and year
// calendar grids.
package grid

import (
	"fmt"
	"slices"
	"time"

	"hcal/internal/dates"
	"hcal/internal/model"
)

const (
	// MonthCells is the 6x7 window every month grid shows.
	MonthCells = 42
	// WeekDays is the width of the week view.
	WeekDays = 7
)

// Cell is one day in a rendered grid.
type Cell struct {
	Date dates.Date `json:"date"`
	Key  string     `json:"key"`

	// InPeriod is false for leading/trailing days of neighbouring months.
	InPeriod bool          `json:"in_period"`
	Today    bool          `json:"today"`
	Events   []model.Event `json:"events"`
}

// MonthModel is a rendered month: 42 cells starting on a Sunday.
type MonthModel struct {
	Label string     `json:"label"`
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Cells []Cell     `json:"cells"`
}

// Slot holds the events shown in one time row of one week day.
type Slot struct {
	Time   string        `json:"time"`
	Events []model.Event `json:"events"`
}

// WeekDay is a week-view column.
type WeekDay struct {
	Cell
	Slots []Slot `json:"slots"`

	// Unslotted holds events whose time matches no configured slot. The
	// week grid does not draw them.
	Unslotted []model.Event `json:"unslotted,omitempty"`
}

// WeekModel is a rendered week: 7 days from Sunday.
type WeekModel struct {
	Label string     `json:"label"`
	Start dates.Date `json:"start"`
	Slots []string   `json:"slots"`
	Days  []WeekDay  `json:"days"`
}

// YearModel is twelve month blocks.
type YearModel struct {
	Label  string       `json:"label"`
	Year   int          `json:"year"`
	Months []MonthModel `json:"months"`
}

// Projector computes render models. Its zero value uses time.Now, the local
// zone and DefaultWeekSlots.
type Projector struct {
	// Now is injectable for tests.
	Now func() time.Time

	// Location defines the wall clock "today" is read in.
	Location *time.Location

	// Slots are the week view's time rows; the first absorbs untimed events.
	Slots []string
}

// NewProjector returns a Projector for loc with the given week slots.
func NewProjector(loc *time.Location, slots []string) *Projector {
	return &Projector{Now: time.Now, Location: loc, Slots: slots}
}

func (p *Projector) today() dates.Date {
	now := time.Now
	if p != nil && p.Now != nil {
		now = p.Now
	}
	var loc *time.Location
	if p != nil {
		loc = p.Location
	}
	return dates.Today(now(), loc)
}

// Today reports the projector's current calendar day.
func (p *Projector) Today() dates.Date {
	return p.today()
}

func (p *Projector) slots() []string {
	if p == nil || len(p.Slots) == 0 {
		return model.DefaultWeekSlots
	}
	return p.Slots
}

// Month projects the given month.
func (p *Projector) Month(year int, month time.Month, list []model.Event) MonthModel {
	return p.month(year, month, p.index(list), false)
}

// Mini projects a month without events, as used by a dashboard widget.
func (p *Projector) Mini(year int, month time.Month) MonthModel {
	return p.month(year, month, nil, false)
}

// month builds the 42-cell window. todayOnOther controls whether the today
// mark may land on a neighbouring-month cell (year blocks allow it).
func (p *Projector) month(year int, month time.Month, idx map[string][]model.Event, todayOnOther bool) MonthModel {
	first := dates.Of(year, month, 1)
	year, month = first.Year, first.Month
	today := p.today()

	days := dates.Span(dates.WeekStart(first), MonthCells)
	cells := make([]Cell, len(days))
	for i, d := range days {
		in := d.Month == month
		key := dates.Key(d)
		cells[i] = Cell{
			Date:     d,
			Key:      key,
			InPeriod: in,
			Today:    dates.SameDay(d, today) && (in || todayOnOther),
			Events:   bucket(idx, key),
		}
	}

	return MonthModel{
		Label: MonthLabel(year, month),
		Year:  year,
		Month: month,
		Cells: cells,
	}
}

// Week projects the seven days of the week containing start.
func (p *Projector) Week(start dates.Date, list []model.Event) WeekModel {
	start = dates.WeekStart(start)
	today := p.today()
	slots := p.slots()
	idx := p.index(list)

	days := dates.Span(start, WeekDays)
	out := make([]WeekDay, len(days))
	for i, d := range days {
		key := dates.Key(d)

		day := WeekDay{
			Cell: Cell{
				Date:     d,
				Key:      key,
				InPeriod: true,
				Today:    dates.SameDay(d, today),
				Events:   []model.Event{},
			},
			Slots: make([]Slot, len(slots)),
		}
		for j, s := range slots {
			day.Slots[j] = Slot{Time: s, Events: []model.Event{}}
		}
		for _, ev := range bucket(idx, key) {
			j := SlotIndex(slots, ev.Time)
			if j < 0 {
				day.Unslotted = append(day.Unslotted, ev)
				continue
			}
			day.Events = append(day.Events, ev)
			day.Slots[j].Events = append(day.Slots[j].Events, ev)
		}
		out[i] = day
	}

	return WeekModel{
		Label: MonthLabel(start.Year, start.Month),
		Start: start,
		Slots: slices.Clone(slots),
		Days:  out,
	}
}

// Year projects all twelve months of year.
func (p *Projector) Year(year int, list []model.Event) YearModel {
	idx := p.index(list)
	months := make([]MonthModel, 0, 12)
	for m := time.January; m <= time.December; m++ {
		mm := p.month(year, m, idx, true)
		mm.Label = ShortMonthLabel(m)
		months = append(months, mm)
	}
	return YearModel{
		Label:  YearLabel(year),
		Year:   year,
		Months: months,
	}
}

// SlotIndex returns the row an event time belongs to: empty time maps to the
// first slot, an exact match to its slot, anything else to -1.
func SlotIndex(slots []string, t string) int {
	if t == "" {
		if len(slots) == 0 {
			return -1
		}
		return 0
	}
	return slices.Index(slots, t)
}

// index buckets visible events by their day on the projector's wall clock.
// Within a day, snapshot order is kept.
func (p *Projector) index(list []model.Event) map[string][]model.Event {
	var loc *time.Location
	if p != nil {
		loc = p.Location
	}
	idx := make(map[string][]model.Event)
	for _, ev := range list {
		if !ev.Visible() {
			continue
		}
		d, _ := ev.DayIn(loc)
		k := dates.Key(d)
		idx[k] = append(idx[k], ev)
	}
	return idx
}

func bucket(idx map[string][]model.Event, key string) []model.Event {
	evs := idx[key]
	if len(evs) == 0 {
		return []model.Event{}
	}
	return slices.Clone(evs)
}

// MonthLabel formats "<year>년 <month>월".
func MonthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%d년 %d월", year, int(month))
}

// ShortMonthLabel formats "<month>월".
func ShortMonthLabel(month time.Month) string {
	return fmt.Sprintf("%d월", int(month))
}

// YearLabel formats "<year>년".
func YearLabel(year int) string {
	return fmt.Sprintf("%d년", year)
}
