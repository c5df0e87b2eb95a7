// Package backup writes periodic iCalendar snapshots of the event collection.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"hcal/internal/blob"
	"hcal/internal/ics"
	appLog "hcal/internal/log"
	"hcal/internal/model"
)

// Source supplies the snapshot to back up.
type Source interface {
	LoadAll(ctx context.Context) []model.Event
}

// Runner exports the collection to a single .ics file.
type Runner struct {
	src  Source
	path string
	loc  *time.Location

	// Now stamps the export; tests pin it.
	Now func() time.Time
}

// NewRunner returns a Runner writing to path. loc decides which day an
// offset-bearing event date is written on.
func NewRunner(src Source, path string, loc *time.Location) *Runner {
	return &Runner{src: src, path: path, loc: loc, Now: time.Now}
}

// Path is the backup file location.
func (r *Runner) Path() string { return r.path }

// Run writes one snapshot, replacing the previous file atomically.
func (r *Runner) Run(ctx context.Context) error {
	if r.path == "" {
		return errors.New("backup: path is empty")
	}
	list := r.src.LoadAll(ctx)
	body := ics.Export(list, r.Now(), r.loc)

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("backup: create dir: %w", err)
	}
	if err := blob.WriteFileAtomic(r.path, []byte(body)); err != nil {
		return fmt.Errorf("backup: write: %w", err)
	}
	appLog.Info("backup written", "path", r.path, "events", len(list))
	return nil
}

// Scheduler runs a Runner on a cron schedule.
type Scheduler struct {
	c      *cron.Cron
	runner *Runner
}

// NewScheduler parses schedule (standard 5-field cron) and registers the runner.
// Nothing runs until Start.
func NewScheduler(schedule string, runner *Runner) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{c: c, runner: runner}
	if _, err := c.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("backup: schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.runner.Run(ctx); err != nil {
		appLog.Error("scheduled backup failed", err, "path", s.runner.Path())
	}
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.c.Start()
	appLog.Info("backup scheduler started", "path", s.runner.Path())
}

// Stop halts the scheduler and waits for a running backup to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Next returns the next scheduled run time.
func (s *Scheduler) Next() time.Time {
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now())
}
