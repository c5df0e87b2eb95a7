package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"hcal/internal/grid"
	"hcal/internal/model"
	"hcal/internal/session"
)

var weekdayHeader = []string{"일", "월", "화", "수", "목", "금", "토"}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// dayMark decorates a day number: [n] for today, (n) outside the period.
func dayMark(c grid.Cell) string {
	switch {
	case c.Today:
		return fmt.Sprintf("[%2d]", c.Date.Day)
	case !c.InPeriod:
		return fmt.Sprintf("(%2d)", c.Date.Day)
	}
	return fmt.Sprintf(" %2d ", c.Date.Day)
}

func writeCells(w io.Writer, cells []grid.Cell) {
	fmt.Fprintln(w, " "+strings.Join(weekdayHeader, "   "))
	for row := 0; row*grid.WeekDays < len(cells); row++ {
		var b strings.Builder
		for _, c := range cells[row*grid.WeekDays : (row+1)*grid.WeekDays] {
			mark := dayMark(c)
			if len(c.Events) > 0 && !c.Today && c.InPeriod {
				mark = fmt.Sprintf(" %2d*", c.Date.Day)
			}
			b.WriteString(mark)
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func eventLine(ev model.Event) string {
	line := fmt.Sprintf("%s  [%s] %s", ev.ID, ev.Category, ev.Title)
	if ev.IsDday {
		line += "  D-day"
	}
	return line
}

func writeMonth(w io.Writer, m grid.MonthModel) {
	fmt.Fprintln(w, m.Label)
	writeCells(w, m.Cells)

	for _, c := range m.Cells {
		if !c.InPeriod || len(c.Events) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", c.Key)
		for _, ev := range c.Events {
			fmt.Fprintf(w, "  %s\n", eventLine(ev))
		}
	}
}

func writeWeek(w io.Writer, wk grid.WeekModel) {
	fmt.Fprintln(w, wk.Label)
	for i, d := range wk.Days {
		head := fmt.Sprintf("%02d/%02d (%s)", int(d.Date.Month), d.Date.Day, weekdayHeader[i%len(weekdayHeader)])
		if d.Today {
			head += " 오늘"
		}
		fmt.Fprintln(w, head)
		for _, s := range d.Slots {
			for _, ev := range s.Events {
				fmt.Fprintf(w, "  %s  %s\n", s.Time, eventLine(ev))
			}
		}
	}
}

func writeYear(w io.Writer, y grid.YearModel) {
	fmt.Fprintln(w, y.Label)
	for _, m := range y.Months {
		fmt.Fprintf(w, "\n%s\n", m.Label)
		writeCells(w, m.Cells)
	}
}

func writeEvent(w io.Writer, ev model.Event) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", ev.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", ev.Title)
	fmt.Fprintf(tw, "Meta:\t%s\n", session.Meta(ev))
	if ev.Time != "" {
		fmt.Fprintf(tw, "Time:\t%s\n", ev.Time)
	}
	if ev.Memo != "" {
		fmt.Fprintf(tw, "Memo:\t%s\n", ev.Memo)
	}
	tw.Flush()
}
