package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	start, end, ok := ParseWindow("", "", now)
	if !ok || !start.IsZero() || !end.Equal(now) {
		t.Fatalf("unexpected open window %v %v %v", start, end, ok)
	}

	start, end, ok = ParseWindow("2024-01-01T00:00:00Z", "2024-02-01T00:00:00Z", now)
	if !ok || start.Month() != time.January || end.Month() != time.February {
		t.Fatalf("unexpected window %v %v", start, end)
	}

	if _, _, ok = ParseWindow("2024-03-01T00:00:00Z", "2024-02-01T00:00:00Z", now); ok {
		t.Fatalf("expected inverted window to fail")
	}
	if _, _, ok = ParseWindow("yesterday", "", now); ok {
		t.Fatalf("expected bad bound to fail")
	}
}
