// Package view holds the month, week and year controllers. Each owns a
// single cursor; Render is always derived from (cursor, store snapshot), so
// it can be called again after any store mutation.
package view

import (
	"context"
	"time"

	"hcal/internal/dates"
	"hcal/internal/grid"
	"hcal/internal/model"
)

// Source provides the current event snapshot. *store.Store satisfies it.
type Source interface {
	LoadAll(ctx context.Context) []model.Event
}

// Month navigates by calendar month.
type Month struct {
	proj  *grid.Projector
	src   Source
	year  int
	month time.Month
}

// NewMonth returns a Month controller positioned on the current month.
func NewMonth(proj *grid.Projector, src Source) *Month {
	c := &Month{proj: proj, src: src}
	c.Today()
	return c
}

// Cursor returns the focal year and month.
func (c *Month) Cursor() (int, time.Month) {
	return c.year, c.month
}

// Goto moves the cursor to the given month; out-of-range months roll over.
func (c *Month) Goto(year int, month time.Month) {
	c.year, c.month = dates.AddMonths(year, month, 0)
}

func (c *Month) Previous() {
	c.year, c.month = dates.AddMonths(c.year, c.month, -1)
}

func (c *Month) Next() {
	c.year, c.month = dates.AddMonths(c.year, c.month, 1)
}

func (c *Month) Today() {
	t := c.proj.Today()
	c.year, c.month = t.Year, t.Month
}

func (c *Month) Render(ctx context.Context) grid.MonthModel {
	return c.proj.Month(c.year, c.month, c.src.LoadAll(ctx))
}

// Week navigates by seven days. The cursor is always a Sunday.
type Week struct {
	proj  *grid.Projector
	src   Source
	start dates.Date
}

// NewWeek returns a Week controller positioned on the current week.
func NewWeek(proj *grid.Projector, src Source) *Week {
	c := &Week{proj: proj, src: src}
	c.Today()
	return c
}

// Cursor returns the week's Sunday.
func (c *Week) Cursor() dates.Date {
	return c.start
}

// Goto moves to the week containing d.
func (c *Week) Goto(d dates.Date) {
	c.start = dates.WeekStart(d)
}

func (c *Week) Previous() {
	c.start = dates.AddDays(c.start, -7)
}

func (c *Week) Next() {
	c.start = dates.AddDays(c.start, 7)
}

func (c *Week) Today() {
	c.start = dates.WeekStart(c.proj.Today())
}

func (c *Week) Render(ctx context.Context) grid.WeekModel {
	return c.proj.Week(c.start, c.src.LoadAll(ctx))
}

// Year navigates by calendar year.
type Year struct {
	proj *grid.Projector
	src  Source
	year int
}

// NewYear returns a Year controller positioned on the current year.
func NewYear(proj *grid.Projector, src Source) *Year {
	c := &Year{proj: proj, src: src}
	c.Today()
	return c
}

func (c *Year) Cursor() int {
	return c.year
}

func (c *Year) Goto(year int) {
	c.year = year
}

func (c *Year) Previous() {
	c.year--
}

func (c *Year) Next() {
	c.year++
}

func (c *Year) Today() {
	c.year = c.proj.Today().Year
}

func (c *Year) Render(ctx context.Context) grid.YearModel {
	return c.proj.Year(c.year, c.src.LoadAll(ctx))
}
