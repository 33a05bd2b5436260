package crawler

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"
)

// Interval errors.
var (
	ErrInvalidInterval = errors.New("invalid time interval")
	ErrTooManySamples  = errors.New("more samples requested than days available")
)

// Accepted command-line time layouts, always interpreted as UTC.
const (
	TimeLayout = "2006-01-02T15:04:05"
	DateLayout = "2006-01-02"
)

const day = 24 * time.Hour

// Window is a half-open search interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// FileName is "<start>_to_<end>.json" at minute precision with ':' replaced
// by '-', e.g. 2021-01-01T00-00_to_2021-01-05T00-00.json.
func (w Window) FileName() string {
	return stamp(w.Start) + "_to_" + stamp(w.End) + ".json"
}

func stamp(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format("2006-01-02T15:04"), ":", "-")
}

// ParseTime accepts TimeLayout or DateLayout.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: cannot parse %q (want YYYY-MM-DDTHH:MM:SS)", ErrInvalidInterval, s)
}

// SplitInterval cuts [start, end) into consecutive windows of windowDays
// days; the last window ends at end.
func SplitInterval(start, end time.Time, windowDays int) ([]Window, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidInterval, end, start)
	}

	if windowDays < 1 {
		return nil, fmt.Errorf("%w: window of %d days", ErrInvalidInterval, windowDays)
	}

	step := time.Duration(windowDays) * day

	var windows []Window

	for from := start; from.Before(end); from = from.Add(step) {
		to := from.Add(step)
		if to.After(end) {
			to = end
		}

		windows = append(windows, Window{Start: from, End: to})
	}

	return windows, nil
}

// RandomDays picks n distinct days uniformly from [left, right] (both
// inclusive, truncated to midnight UTC) and returns them as one-day windows
// in chronological order.
func RandomDays(left, right time.Time, n int, rng *rand.Rand) ([]Window, error) {
	left = left.UTC().Truncate(day)
	right = right.UTC().Truncate(day)

	if right.Before(left) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidInterval, right.Format(DateLayout), left.Format(DateLayout))
	}

	if n < 1 {
		return nil, fmt.Errorf("%w: %d samples", ErrInvalidInterval, n)
	}

	available := int(right.Sub(left)/day) + 1
	if n > available {
		return nil, fmt.Errorf("%w: %d requested, %d days between %s and %s",
			ErrTooManySamples, n, available, left.Format(DateLayout), right.Format(DateLayout))
	}

	offsets := rng.Perm(available)[:n]
	slices.Sort(offsets)

	windows := make([]Window, n)
	for i, off := range offsets {
		start := left.Add(time.Duration(off) * day)
		windows[i] = Window{Start: start, End: start.Add(day)}
	}

	return windows, nil
}
