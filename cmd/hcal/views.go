package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"hcal/internal/dates"
	"hcal/internal/view"
)

var (
	navPrev int
	navNext int
)

// step applies --prev/--next to a controller's Previous/Next.
func step(prev, next func()) {
	for i := 0; i < navPrev; i++ {
		prev()
	}
	for i := 0; i < navNext; i++ {
		next()
	}
}

var monthCmd = &cobra.Command{
	Use:     "month [YYYY-MM]",
	Short:   "Show a month grid (default: this month)",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := view.NewMonth(app.proj, app.store)
		if len(args) == 1 {
			t, err := time.Parse("2006-01", args[0])
			if err != nil {
				return fmt.Errorf("parsing month %q: expected YYYY-MM", args[0])
			}
			c.Goto(t.Year(), t.Month())
		}
		step(c.Previous, c.Next)

		m := c.Render(cmd.Context())
		if jsonOutput {
			return printJSON(os.Stdout, m)
		}
		writeMonth(os.Stdout, m)
		return nil
	},
}

var weekCmd = &cobra.Command{
	Use:     "week [YYYY-MM-DD]",
	Short:   "Show the week containing a day (default: this week)",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := view.NewWeek(app.proj, app.store)
		if len(args) == 1 {
			d, err := dates.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing day %q: %w", args[0], err)
			}
			c.Goto(d)
		}
		step(c.Previous, c.Next)

		w := c.Render(cmd.Context())
		if jsonOutput {
			return printJSON(os.Stdout, w)
		}
		writeWeek(os.Stdout, w)
		return nil
	},
}

var yearCmd = &cobra.Command{
	Use:     "year [YYYY]",
	Short:   "Show twelve month blocks of a year (default: this year)",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := view.NewYear(app.proj, app.store)
		if len(args) == 1 {
			y, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parsing year %q: %w", args[0], err)
			}
			c.Goto(y)
		}
		step(c.Previous, c.Next)

		y := c.Render(cmd.Context())
		if jsonOutput {
			return printJSON(os.Stdout, y)
		}
		writeYear(os.Stdout, y)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{monthCmd, weekCmd, yearCmd} {
		c.Flags().IntVar(&navPrev, "prev", 0, "step back this many periods")
		c.Flags().IntVar(&navNext, "next", 0, "step forward this many periods")
	}
}
