package filter

import (
	"strings"
	"time"

	"matchmaker/internal/geo"
	"matchmaker/internal/model"
)

// Apply returns the approved, upcoming events of events that satisfy every criterion in f.
// userLoc may be nil; the distance criterion is ignored then. Days are compared in
// now's location and the input order is preserved.
func Apply(events []model.Event, f model.Filters, userLoc *model.Coordinates, now time.Time) []model.Event {
	today := startOfDay(now)
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))

	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.Status != model.StatusApproved {
			continue
		}
		day, err := e.Day(now.Location())
		if err != nil || day.Before(today) {
			continue
		}
		if !matchKeyword(e, keyword) {
			continue
		}
		if !matchDate(day, f.Date, today) {
			continue
		}
		if !matchCategory(e.Category, f.Categories) {
			continue
		}
		if f.Distance > 0 && userLoc != nil && geo.Distance(*userLoc, e.Coordinates) > f.Distance {
			continue
		}
		if f.IsMicro && !e.IsMicro {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchKeyword(e model.Event, keyword string) bool {
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Title), keyword) ||
		strings.Contains(strings.ToLower(e.Description), keyword) ||
		strings.Contains(strings.ToLower(e.Location), keyword)
}

func matchDate(day time.Time, bucket string, today time.Time) bool {
	switch bucket {
	case model.DateToday:
		return day.Equal(today)
	case model.DateWeek:
		return !day.After(EndOfWeek(today))
	case model.DateMonth:
		return !day.After(EndOfMonth(today))
	default:
		return true
	}
}

func matchCategory(c model.Category, selected []model.Category) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == c {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfWeek returns the Sunday that closes the ISO week containing day, at midnight.
func EndOfWeek(day time.Time) time.Time {
	// ISO weeks run Monday..Sunday; time.Weekday counts Sunday as 0.
	offset := (7 - int(day.Weekday())) % 7
	return startOfDay(day).AddDate(0, 0, offset)
}

// EndOfMonth returns the last calendar day of day's month, at midnight.
func EndOfMonth(day time.Time) time.Time {
	y, m, _ := day.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, day.Location())
}

// ValidBucket reports whether bucket is a known date bucket. Empty counts as any.
func ValidBucket(bucket string) bool {
	switch bucket {
	case "", model.DateAny, model.DateToday, model.DateWeek, model.DateMonth:
		return true
	}
	return false
}
