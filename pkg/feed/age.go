package feed

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

var ageUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  30 * 24 * time.Hour,
	"year":   365 * 24 * time.Hour,
}

// ParseAge turns a relative display time ("2 hours ago", "Yesterday",
// "just now") into the age it describes.
func ParseAge(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return 0, false
	case "just now", "now", "today":
		return 0, true
	case "yesterday":
		return 24 * time.Hour, true
	}

	fields := strings.Fields(s)
	if len(fields) != 3 || fields[2] != "ago" {
		return 0, false
	}
	var n int
	switch fields[0] {
	case "a", "an":
		n = 1
	default:
		v, err := strconv.Atoi(fields[0])
		if err != nil || v < 0 {
			return 0, false
		}
		n = v
	}
	unit, ok := ageUnits[strings.TrimSuffix(fields[1], "s")]
	if !ok {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

// publishedAt resolves the moment an item was published, relative to now.
func publishedAt(it Item, now time.Time) (time.Time, bool) {
	if it.PublishedAt != nil {
		return *it.PublishedAt, true
	}
	age, ok := ParseAge(it.Time)
	if !ok {
		return time.Time{}, false
	}
	return now.Add(-age), true
}

// SortItems orders items chronologically in place. Items whose time cannot
// be resolved go last, ordered by their display string.
func SortItems(items []Item, order SortOrder, now time.Time) {
	type keyed struct {
		at    time.Time
		known bool
	}
	keys := make(map[string]keyed, len(items))
	for _, it := range items {
		at, ok := publishedAt(it, now)
		keys[it.ID] = keyed{at: at, known: ok}
	}

	newest := order != SortOldest
	sort.SliceStable(items, func(i, j int) bool {
		a, b := keys[items[i].ID], keys[items[j].ID]
		switch {
		case a.known && b.known:
			if a.at.Equal(b.at) {
				return false
			}
			if newest {
				return a.at.After(b.at)
			}
			return a.at.Before(b.at)
		case a.known != b.known:
			return a.known
		}
		if newest {
			return items[i].Time > items[j].Time
		}
		return items[i].Time < items[j].Time
	})
}
