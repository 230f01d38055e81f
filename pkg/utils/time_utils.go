// utils/time_utils.go
package utils

import (
	"strconv"
	"strings"
	"time"
)

// NowUTC is the default clock for services that take an injectable now func.
func NowUTC() time.Time { return time.Now().UTC() }

// FormatTimestamp renders t the way the backend expects, RFC3339 in UTC.
// Returns "" for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ParseTimestamp accepts RFC3339 (with or without fractional seconds) and
// bare unix seconds. Empty input yields the zero time and no error.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return FromUnixAuto(secs), nil
}

// FromUnixAuto guesses the unit of an epoch value (s, ms, us, ns).
// Prefer NOT to rely on this; the backend sends RFC3339.
func FromUnixAuto(x int64) time.Time {
	if x <= 0 {
		return time.Time{}
	}
	switch {
	case x < 1e11:
		return time.Unix(x, 0).UTC()
	case x < 1e14:
		return time.UnixMilli(x).UTC()
	case x < 1e17:
		return time.UnixMicro(x).UTC()
	default:
		return time.Unix(0, x).UTC()
	}
}
