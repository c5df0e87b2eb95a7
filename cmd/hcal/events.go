package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hcal/internal/model"
	"hcal/internal/session"
)

var (
	formDate     string
	formCategory string
	formMemo     string
	formTime     string
	formDday     bool
	formTitle    string
)

// applyFormFlags copies changed flags onto the session; the title, date and
// memo are returned for Submit, starting from the session seed.
func applyFormFlags(cmd *cobra.Command, e *session.Edit) (title, date, memo string, err error) {
	seed := e.Seed()
	title, date, memo = seed.Title, seed.Date, seed.Memo

	flags := cmd.Flags()
	if flags.Changed("category") {
		c, ok := model.CategoryFromName(formCategory)
		if !ok {
			return "", "", "", fmt.Errorf("unknown category %q", formCategory)
		}
		e.SetCategory(c)
	}
	if flags.Changed("dday") && formDday != e.Dday {
		e.ToggleDday()
	}
	if flags.Changed("time") {
		e.Time = formTime
	}
	if flags.Changed("title") {
		title = formTitle
	}
	if flags.Changed("date") {
		date = formDate
	}
	if flags.Changed("memo") {
		memo = formMemo
	}
	return title, date, memo, nil
}

// reportResult prints a successful submission or turns a rejected one into
// an error.
func reportResult(res session.Result) error {
	switch {
	case res.Reason != "":
		return errors.New(res.Reason.Message())
	case res.Err != nil:
		return fmt.Errorf("saving event: %w", res.Err)
	case res.Outcome == session.Vanished:
		return errors.New("event no longer exists")
	}
	if jsonOutput {
		return printJSON(os.Stdout, res.Event)
	}
	writeEvent(os.Stdout, res.Event)
	return nil
}

var addCmd = &cobra.Command{
	Use:     "add <title>",
	Short:   "Add an event",
	GroupID: "events",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := session.NewEdit(app.store)
		_, date, memo, err := applyFormFlags(cmd, e)
		if err != nil {
			return err
		}
		return reportResult(e.Submit(cmd.Context(), args[0], date, memo))
	},
}

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	Short:   "Edit an event; only the given flags change",
	GroupID: "events",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d := session.NewDetail(app.store)
		if _, ok := d.OnEventSelected(ctx, args[0]); !ok {
			return fmt.Errorf("event %s not found", args[0])
		}
		e := session.NewEdit(app.store)
		if !d.Edit(ctx, e) {
			return fmt.Errorf("event %s not found", args[0])
		}
		title, date, memo, err := applyFormFlags(cmd, e)
		if err != nil {
			return err
		}
		return reportResult(e.Submit(ctx, title, date, memo))
	},
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show one event",
	GroupID: "events",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, ok := session.NewDetail(app.store).OnEventSelected(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("event %s not found", args[0])
		}
		if jsonOutput {
			return printJSON(os.Stdout, ev)
		}
		writeEvent(os.Stdout, ev)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Short:   "Delete events; unknown ids are ignored",
	GroupID: "events",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d := session.NewDetail(app.store)
		for _, id := range args {
			if _, ok := d.OnEventSelected(ctx, id); !ok {
				fmt.Fprintf(os.Stderr, "%s: not found\n", id)
				continue
			}
			if err := d.Delete(ctx); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
			fmt.Printf("deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVarP(&formDate, "date", "d", "", "day of the event (YYYY-MM-DD)")
		c.Flags().StringVarP(&formCategory, "category", "c", "", "category: 시험 과제 알바 생일 일상 여행 (or exam task job birthday daily trip)")
		c.Flags().StringVarP(&formMemo, "memo", "m", "", "free-form note")
		c.Flags().StringVarP(&formTime, "time", "t", "", "week slot, e.g. 18:00")
		c.Flags().BoolVar(&formDday, "dday", false, "mark as a D-day")
	}
	editCmd.Flags().StringVar(&formTitle, "title", "", "new title")
}
