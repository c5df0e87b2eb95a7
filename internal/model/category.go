package model

import "strings"

// Category is the closed set of event kinds.
type Category string

const (
	CategoryExam     Category = "시험"
	CategoryTask     Category = "과제"
	CategoryJob      Category = "알바"
	CategoryBirthday Category = "생일"
	CategoryDaily    Category = "일상"
	CategoryTrip     Category = "여행"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryExam,
	CategoryTask,
	CategoryJob,
	CategoryBirthday,
	CategoryDaily,
	CategoryTrip,
}

// DefaultCategory is applied to records whose category is absent or unknown.
const DefaultCategory = CategoryDaily

// ParseCategory maps a stored value to a Category, falling back to
// DefaultCategory.
func ParseCategory(s string) Category {
	c := Category(strings.TrimSpace(s))
	if c.Valid() {
		return c
	}
	return DefaultCategory
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryExam, CategoryTask, CategoryJob, CategoryBirthday, CategoryDaily, CategoryTrip:
		return true
	}
	return false
}

// DisplayTag returns the presentation tag for c.
func (c Category) DisplayTag() string {
	switch c {
	case CategoryExam:
		return "event-exam"
	case CategoryTask:
		return "event-task"
	case CategoryJob:
		return "event-alba"
	case CategoryBirthday:
		return "event-birthday"
	case CategoryTrip:
		return "event-trip"
	case CategoryDaily:
		return "event-daily"
	default:
		return "event-daily"
	}
}

// English returns a romanized name, used for CLI flags and ICS categories.
func (c Category) English() string {
	switch c {
	case CategoryExam:
		return "exam"
	case CategoryTask:
		return "task"
	case CategoryJob:
		return "job"
	case CategoryBirthday:
		return "birthday"
	case CategoryTrip:
		return "trip"
	default:
		return "daily"
	}
}

// CategoryFromName accepts either the stored value or its English name.
func CategoryFromName(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if string(c) == s || strings.EqualFold(c.English(), s) {
			return c, true
		}
	}
	return "", false
}
