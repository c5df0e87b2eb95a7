package session

import (
	"context"
	"strings"

	"hcal/internal/model"
)

// Records is the subset of *store.Store the detail panel needs.
type Records interface {
	Get(ctx context.Context, id string) (model.Event, bool)
	Remove(ctx context.Context, id string) (bool, error)
}

// Detail tracks which event the detail panel shows.
type Detail struct {
	store    Records
	selected string
}

func NewDetail(st Records) *Detail {
	return &Detail{store: st}
}

// OnEventSelected opens id in the detail panel. An unknown id leaves the
// panel as it was and reports false.
func (d *Detail) OnEventSelected(ctx context.Context, id string) (model.Event, bool) {
	ev, ok := d.store.Get(ctx, id)
	if !ok {
		return model.Event{}, false
	}
	d.selected = id
	return ev, true
}

// Selected returns the open event's id.
func (d *Detail) Selected() (string, bool) {
	return d.selected, d.selected != ""
}

// Close clears the selection.
func (d *Detail) Close() {
	d.selected = ""
}

// Delete removes the selected event and closes the panel.
func (d *Detail) Delete(ctx context.Context) error {
	id, ok := d.Selected()
	if !ok {
		return nil
	}
	if _, err := d.store.Remove(ctx, id); err != nil {
		return err
	}
	d.Close()
	return nil
}

// Edit reloads the selected event, closes the panel and seeds e with it.
// Reports false when nothing is selected or the event has since vanished.
func (d *Detail) Edit(ctx context.Context, e *Edit) bool {
	id, ok := d.Selected()
	if !ok {
		return false
	}
	ev, ok := d.store.Get(ctx, id)
	if !ok {
		return false
	}
	d.Close()
	e.BeginEdit(ev)
	return true
}

// Meta formats the detail subtitle: "<date> · <category>[ · D-day]".
func Meta(ev model.Event) string {
	parts := []string{ev.Date, string(ev.Category)}
	if ev.IsDday {
		parts = append(parts, "D-day")
	}
	return strings.Join(parts, " · ")
}
