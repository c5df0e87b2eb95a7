package store

import (
	"context"
	"strings"

	"hcal/internal/events"
	appLog "hcal/internal/log"
	"hcal/internal/model"
)

// ImportResult counts what Import did.
type ImportResult struct {
	Added    int `json:"added"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
}

// Import merges incoming records into the collection in one write: a record
// whose ID already exists replaces it, any other valid record is appended
// (under a fresh ID if it has none). Invalid records are skipped.
func (s *Store) Import(ctx context.Context, incoming []model.Event) (ImportResult, error) {
	var res ImportResult

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.LoadAll(ctx)
	for _, ev := range incoming {
		ev.ID = strings.TrimSpace(ev.ID)
		ev.Title = strings.TrimSpace(ev.Title)
		ev.Date = strings.TrimSpace(ev.Date)
		ev = ev.Normalize()
		if err := Validate(ev); err != nil {
			res.Skipped++
			continue
		}

		if ev.ID != "" {
			if idx := indexOf(list, ev.ID); idx != -1 {
				list[idx] = ev
				res.Replaced++
				continue
			}
		} else {
			id, err := s.freshID(list)
			if err != nil {
				return res, err
			}
			ev.ID = id
		}
		list = append(list, ev)
		res.Added++
	}

	if res.Added+res.Replaced == 0 {
		return res, nil
	}
	if err := s.save(ctx, list); err != nil {
		return ImportResult{}, err
	}

	appLog.Info("events imported", "added", res.Added, "replaced", res.Replaced, "skipped", res.Skipped)
	s.publish(ctx, events.TopicStoreReset, events.StoreReset{Count: len(list)})
	return res, nil
}
