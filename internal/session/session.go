// Package session mediates the add/edit form and the event detail panel.
package session

import (
	"context"
	"errors"
	"strings"

	"hcal/internal/model"
	"hcal/internal/store"
)

// Reason explains a rejected submission.
type Reason string

const (
	ReasonMissingTitle Reason = "missing title"
	ReasonMissingDate  Reason = "missing date"
	ReasonInvalidDate  Reason = "invalid date"
)

// Message is the user-facing text for r.
func (r Reason) Message() string {
	switch r {
	case ReasonMissingTitle:
		return "제목을 입력해주세요."
	case ReasonMissingDate:
		return "날짜를 선택해주세요."
	case ReasonInvalidDate:
		return "날짜 형식이 올바르지 않습니다."
	}
	return ""
}

// Outcome says what a successful submission did.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
	// Vanished means the record being edited no longer exists; nothing
	// was written.
	Vanished
)

// Result is returned by Submit. Exactly one of Reason/Err is set on failure.
type Result struct {
	Outcome Outcome
	Event   model.Event
	Reason  Reason
	Err     error
}

// OK reports whether the submission was accepted.
func (r Result) OK() bool {
	return r.Reason == "" && r.Err == nil
}

// DefaultCategory preselected by a fresh form.
const DefaultCategory = model.CategoryExam

// Editor is the subset of *store.Store an edit session writes through.
type Editor interface {
	Create(ctx context.Context, d store.Draft) (model.Event, error)
	Update(ctx context.Context, id string, p store.Patch) (model.Event, bool, error)
}

// Edit is the state of one open add/edit form.
type Edit struct {
	store Editor

	Category model.Category
	Dday     bool

	// Time is the week slot to file the event under; empty means none.
	Time string

	editingID string
	seed      model.Event
}

// NewEdit returns a session in create mode.
func NewEdit(st Editor) *Edit {
	s := &Edit{store: st}
	s.BeginCreate()
	return s
}

// BeginCreate resets the form to defaults.
func (s *Edit) BeginCreate() {
	s.Category = DefaultCategory
	s.Dday = false
	s.Time = ""
	s.editingID = ""
	s.seed = model.Event{}
}

// BeginEdit seeds the form from ev and switches to edit mode.
func (s *Edit) BeginEdit(ev model.Event) {
	s.Category = model.ParseCategory(string(ev.Category))
	s.Dday = ev.IsDday
	s.Time = ev.Time
	s.editingID = ev.ID
	s.seed = ev
}

// EditingID returns the record being edited, if any.
func (s *Edit) EditingID() (string, bool) {
	return s.editingID, s.editingID != ""
}

// Seed returns the record the form was opened with in edit mode, for
// pre-filling inputs.
func (s *Edit) Seed() model.Event {
	return s.seed
}

// SetCategory selects a category; unknown values are ignored.
func (s *Edit) SetCategory(c model.Category) {
	if c.Valid() {
		s.Category = c
	}
}

// ToggleDday flips the D-day flag.
func (s *Edit) ToggleDday() {
	s.Dday = !s.Dday
}

// Submit validates the inputs and creates or updates a record.
func (s *Edit) Submit(ctx context.Context, title, date, memo string) Result {
	title = strings.TrimSpace(title)
	date = strings.TrimSpace(date)
	memo = strings.TrimSpace(memo)

	if title == "" {
		return Result{Reason: ReasonMissingTitle}
	}
	if date == "" {
		return Result{Reason: ReasonMissingDate}
	}

	if id, editing := s.EditingID(); editing {
		cat := s.Category
		dday := s.Dday
		tm := s.Time
		ev, found, err := s.store.Update(ctx, id, store.Patch{
			Title:    &title,
			Date:     &date,
			Category: &cat,
			Memo:     &memo,
			IsDday:   &dday,
			Time:     &tm,
		})
		if err != nil {
			return failed(err)
		}
		if !found {
			return Result{Outcome: Vanished}
		}
		return Result{Outcome: Updated, Event: ev}
	}

	ev, err := s.store.Create(ctx, store.Draft{
		Title:    title,
		Date:     date,
		Category: s.Category,
		Memo:     memo,
		IsDday:   s.Dday,
		Time:     s.Time,
	})
	if err != nil {
		return failed(err)
	}
	return Result{Outcome: Created, Event: ev}
}

func failed(err error) Result {
	switch {
	case errors.Is(err, store.ErrMissingTitle):
		return Result{Reason: ReasonMissingTitle}
	case errors.Is(err, store.ErrMissingDate):
		return Result{Reason: ReasonMissingDate}
	case errors.Is(err, store.ErrInvalidDate):
		return Result{Reason: ReasonInvalidDate}
	}
	return Result{Err: err}
}
