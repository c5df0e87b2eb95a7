package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hcal/internal/blob"
	"hcal/internal/ics"
)

var exportCmd = &cobra.Command{
	Use:     "export [file.ics]",
	Short:   "Write all events as iCalendar (default: stdout)",
	GroupID: "system",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list := app.store.LoadAll(cmd.Context())
		body := ics.Export(list, time.Now(), app.loc)
		if len(args) == 0 || args[0] == "-" {
			_, err := os.Stdout.WriteString(body)
			return err
		}
		if err := blob.WriteFileAtomic(args[0], []byte(body)); err != nil {
			return fmt.Errorf("writing %s: %w", args[0], err)
		}
		fmt.Fprintf(os.Stderr, "exported %d events to %s\n", len(list), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file.ics|url>",
	Short:   "Merge events from an iCalendar file or URL",
	GroupID: "system",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		src := args[0]

		var data []byte
		var err error
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			data, err = ics.NewFetcher().Fetch(ctx, src)
		} else {
			data, err = os.ReadFile(src)
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", src, err)
		}

		incoming, err := ics.Parse(bytes.NewReader(data), app.loc)
		if err != nil {
			return err
		}
		res, err := app.store.Import(ctx, incoming)
		if err != nil {
			return fmt.Errorf("saving imported events: %w", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, res)
		}
		fmt.Printf("added %d, replaced %d, skipped %d\n", res.Added, res.Replaced, res.Skipped)
		return nil
	},
}
