// Package store owns the authoritative collection of event records.
//
// Every mutation is read-all, modify in memory, write-all against the blob
// medium. A mutex serializes mutations inside one process; there is no
// cross-process locking.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"hcal/internal/blob"
	"hcal/internal/dates"
	"hcal/internal/events"
	"hcal/internal/idgen"
	appLog "hcal/internal/log"
	"hcal/internal/model"
)

// DefaultKey is the namespace key the collection is stored under.
const DefaultKey = "hyeonse-calendar-events-v1"

// Validation errors.
var (
	ErrMissingTitle = errors.New("missing title")
	ErrMissingDate  = errors.New("missing date")
	ErrInvalidDate  = errors.New("invalid date")
)

// Draft is the user-supplied content of a new record.
type Draft struct {
	Title    string
	Date     string
	Category model.Category
	Memo     string
	IsDday   bool
	Time     string
}

// Patch lists fields to overwrite on an existing record; nil means keep.
type Patch struct {
	Title    *string
	Date     *string
	Category *model.Category
	Memo     *string
	IsDday   *bool
	Time     *string
}

// Store is the event store.
type Store struct {
	blob blob.Store
	key  string
	pub  events.Publisher
	ids  func() (string, error)

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the namespace key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithPublisher sets the change-notification publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithIDGenerator replaces the ID source; tests use it for determinism.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Store) {
		if gen != nil {
			s.ids = gen
		}
	}
}

// New returns a Store persisting into b.
func New(b blob.Store, opts ...Option) *Store {
	s := &Store{
		blob: b,
		key:  DefaultKey,
		pub:  &events.NoopPublisher{},
		ids:  idgen.Generate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAll returns the current snapshot. Missing, unreadable or malformed
// data yields an empty collection; the failure is logged, never returned.
func (s *Store) LoadAll(ctx context.Context) []model.Event {
	raw, ok, err := s.blob.Get(ctx, s.key)
	if err != nil {
		appLog.Error("event store: blob read failed; treating as empty", err, "key", s.key)
		return []model.Event{}
	}
	if !ok {
		return []model.Event{}
	}
	list, err := Decode(raw)
	if err != nil {
		appLog.Error("event store: stored data malformed; treating as empty", err, "key", s.key)
		return []model.Event{}
	}
	return list
}

// SaveAll overwrites the persisted collection.
func (s *Store) SaveAll(ctx context.Context, list []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, list); err != nil {
		return err
	}
	s.publish(ctx, events.TopicStoreReset, events.StoreReset{Count: len(list)})
	return nil
}

func (s *Store) save(ctx context.Context, list []model.Event) error {
	raw, err := Encode(list)
	if err != nil {
		return err
	}
	if err := s.blob.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("event store: save: %w", err)
	}
	return nil
}

// Get looks up a record by ID.
func (s *Store) Get(ctx context.Context, id string) (model.Event, bool) {
	for _, ev := range s.LoadAll(ctx) {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

// Create validates d and appends it under a fresh ID. On a validation error
// the store is left unchanged.
func (s *Store) Create(ctx context.Context, d Draft) (model.Event, error) {
	ev := model.Event{
		Title:    strings.TrimSpace(d.Title),
		Date:     strings.TrimSpace(d.Date),
		Category: model.ParseCategory(string(d.Category)),
		Memo:     strings.TrimSpace(d.Memo),
		IsDday:   d.IsDday,
		Time:     strings.TrimSpace(d.Time),
	}
	if err := Validate(ev); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.LoadAll(ctx)
	id, err := s.freshID(list)
	if err != nil {
		return model.Event{}, err
	}
	ev.ID = id

	list = append(list, ev)
	if err := s.save(ctx, list); err != nil {
		return model.Event{}, err
	}

	appLog.Debug("event created", "id", ev.ID, "date", ev.Date)
	s.publish(ctx, events.TopicEventCreated, events.EventCreated{Event: ev})
	return ev, nil
}

// freshID draws IDs until one is not already in list.
func (s *Store) freshID(list []model.Event) (string, error) {
	taken := make(map[string]struct{}, len(list))
	for _, ev := range list {
		taken[ev.ID] = struct{}{}
	}
	for attempt := 0; attempt < 8; attempt++ {
		id, err := s.ids()
		if err != nil {
			return "", err
		}
		if _, dup := taken[id]; !dup && id != "" {
			return id, nil
		}
	}
	return "", errors.New("event store: could not generate a unique id")
}

// Update merges p over the record with the given ID and replaces it whole.
// found is false (and nothing is written) when no record has that ID.
func (s *Store) Update(ctx context.Context, id string, p Patch) (ev model.Event, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.LoadAll(ctx)
	idx := indexOf(list, id)
	if idx == -1 {
		appLog.Debug("event update: id not found", "id", id)
		return model.Event{}, false, nil
	}

	next := apply(list[idx], p)
	if err := Validate(next); err != nil {
		return model.Event{}, true, err
	}

	out := make([]model.Event, len(list))
	copy(out, list)
	out[idx] = next
	if err := s.save(ctx, out); err != nil {
		return model.Event{}, true, err
	}

	s.publish(ctx, events.TopicEventUpdated, events.EventUpdated{Event: next})
	return next, true, nil
}

// Remove drops the record with the given ID. Removing an unknown ID is a
// no-op and reports removed=false.
func (s *Store) Remove(ctx context.Context, id string) (removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.LoadAll(ctx)
	out := make([]model.Event, 0, len(list))
	for _, ev := range list {
		if ev.ID != id {
			out = append(out, ev)
		}
	}
	if len(out) == len(list) {
		return false, nil
	}
	if err := s.save(ctx, out); err != nil {
		return false, err
	}

	s.publish(ctx, events.TopicEventDeleted, events.EventDeleted{EventID: id})
	return true, nil
}

func (s *Store) publish(ctx context.Context, topic string, payload any) {
	if err := s.pub.Publish(ctx, topic, payload); err != nil {
		appLog.Error("event store: publish failed", err, "topic", topic)
	}
}

// Validate checks the fields every stored record must carry.
func Validate(ev model.Event) error {
	if strings.TrimSpace(ev.Title) == "" {
		return ErrMissingTitle
	}
	if strings.TrimSpace(ev.Date) == "" {
		return ErrMissingDate
	}
	if _, err := dates.Parse(ev.Date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, ev.Date)
	}
	return nil
}

func apply(ev model.Event, p Patch) model.Event {
	if p.Title != nil {
		ev.Title = strings.TrimSpace(*p.Title)
	}
	if p.Date != nil {
		ev.Date = strings.TrimSpace(*p.Date)
	}
	if p.Category != nil {
		ev.Category = model.ParseCategory(string(*p.Category))
	}
	if p.Memo != nil {
		ev.Memo = strings.TrimSpace(*p.Memo)
	}
	if p.IsDday != nil {
		ev.IsDday = *p.IsDday
	}
	if p.Time != nil {
		ev.Time = strings.TrimSpace(*p.Time)
	}
	return ev
}

func indexOf(list []model.Event, id string) int {
	for i, ev := range list {
		if ev.ID == id {
			return i
		}
	}
	return -1
}

// Encode serializes the collection as a JSON array.
func Encode(list []model.Event) (string, error) {
	if list == nil {
		list = []model.Event{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("event store: encode: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored JSON array. Blank input is an empty collection.
// Category values are normalized on the way in.
func Decode(raw string) ([]model.Event, error) {
	if strings.TrimSpace(raw) == "" {
		return []model.Event{}, nil
	}
	var list []model.Event
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("event store: decode: %w", err)
	}
	out := make([]model.Event, 0, len(list))
	for _, ev := range list {
		out = append(out, ev.Normalize())
	}
	return out, nil
}
