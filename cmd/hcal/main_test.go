package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hcal/internal/blob"
	"hcal/internal/config"
	"hcal/internal/dates"
	"hcal/internal/events"
	"hcal/internal/grid"
	"hcal/internal/model"
	"hcal/internal/store"
)

func TestOpenBlob(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		driver  string
		want    string
		wantErr bool
	}{
		{config.DriverMemory, "*blob.Memory", false},
		{config.DriverFile, "*blob.File", false},
		{"", "*blob.File", false},
		{"floppy", "", true},
	} {
		cfg := config.DefaultConfig()
		cfg.Storage.Driver = tc.driver
		cfg.Storage.Dir = t.TempDir()

		b, closer, err := openBlob(ctx, cfg)
		if (err != nil) != tc.wantErr {
			t.Errorf("openBlob(%q) err = %v, wantErr %v", tc.driver, err, tc.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if closer != nil {
			t.Errorf("openBlob(%q) returned a closer", tc.driver)
		}
		if got := typeName(b); got != tc.want {
			t.Errorf("openBlob(%q) = %s, want %s", tc.driver, got, tc.want)
		}
	}
}

func typeName(b blob.Store) string {
	switch b.(type) {
	case *blob.Memory:
		return "*blob.Memory"
	case *blob.File:
		return "*blob.File"
	}
	return "other"
}

func TestOpenPublisherNoop(t *testing.T) {
	pub, err := openPublisher(config.DefaultConfig())
	if err != nil {
		t.Fatalf("openPublisher: %v", err)
	}
	if _, ok := pub.(*events.NoopPublisher); !ok {
		t.Errorf("publisher = %T, want *events.NoopPublisher", pub)
	}
}

func testProjector() *grid.Projector {
	p := grid.NewProjector(time.UTC, nil)
	p.Now = func() time.Time { return time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC) }
	return p
}

func TestWriteMonth(t *testing.T) {
	list := []model.Event{
		{ID: "ev-1", Title: "중간고사", Date: "2025-03-20", Category: model.CategoryExam, IsDday: true},
	}
	var buf bytes.Buffer
	writeMonth(&buf, testProjector().Month(2025, time.March, list))
	out := buf.String()

	for _, want := range []string{"2025년 3월", "[15]", "(23)", " 20*", "2025-03-20", "ev-1  [시험] 중간고사  D-day"} {
		if !strings.Contains(out, want) {
			t.Errorf("month output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteWeek(t *testing.T) {
	list := []model.Event{
		{ID: "ev-1", Title: "알바", Date: "2025-03-12", Category: model.CategoryJob, Time: "18:00"},
		{ID: "ev-2", Title: "새벽", Date: "2025-03-12", Time: "05:00"},
	}
	var buf bytes.Buffer
	writeWeek(&buf, testProjector().Week(dates.Of(2025, time.March, 9), list))
	out := buf.String()

	for _, want := range []string{"03/12 (수)", "03/15 (토) 오늘", "18:00  ev-1  [알바] 알바"} {
		if !strings.Contains(out, want) {
			t.Errorf("week output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "새벽") {
		t.Errorf("unslotted event drawn:\n%s", out)
	}
}

// TestCommands runs add, edit and rm against a file-backed config.
func TestCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Storage.Dir = filepath.Join(dir, "data")
	if err := config.Save(cfgPath, cfg); err != nil {
		t.Fatal(err)
	}
	st := store.New(blob.NewFile(cfg.Storage.Dir))

	run := func(args ...string) error {
		rootCmd.SetArgs(append(args, "--config", cfgPath))
		return rootCmd.ExecuteContext(context.Background())
	}

	if err := run("add", "중간고사", "--date", "2025-04-21", "-c", "task", "--dday"); err != nil {
		t.Fatalf("add: %v", err)
	}
	list := st.LoadAll(context.Background())
	if len(list) != 1 {
		t.Fatalf("after add: %d events", len(list))
	}
	ev := list[0]
	if ev.Title != "중간고사" || ev.Category != model.CategoryTask || !ev.IsDday {
		t.Errorf("added = %+v", ev)
	}

	if err := run("edit", ev.ID, "--time", "18:00", "--memo", "3강의실"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got, _ := st.Get(context.Background(), ev.ID)
	if got.Time != "18:00" || got.Memo != "3강의실" || got.Date != "2025-04-21" || !got.IsDday {
		t.Errorf("edited = %+v", got)
	}

	if err := run("show", "missing-id"); err == nil {
		t.Error("show of unknown id should fail")
	}

	if err := run("rm", ev.ID); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if n := len(st.LoadAll(context.Background())); n != 0 {
		t.Errorf("after rm: %d events", n)
	}

	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("config vanished: %v", err)
	}
}
