package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseWindow resolves a query window. An empty from is unbounded (zero time),
// an empty to is now. ok is false if a non-empty bound does not parse or from > to.
func ParseWindow(from, to string, now time.Time) (start, end time.Time, ok bool) {
	if from != "" {
		if start, ok = ParseTime(from); !ok {
			return time.Time{}, time.Time{}, false
		}
	}
	end = now
	if to != "" {
		if end, ok = ParseTime(to); !ok {
			return time.Time{}, time.Time{}, false
		}
	}
	if !start.IsZero() && start.After(end) {
		return time.Time{}, time.Time{}, false
	}
	return start.UTC(), end.UTC(), true
}
