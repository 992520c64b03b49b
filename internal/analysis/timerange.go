package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/rig-dashboard/backend/internal/models"
)

// DateLayout is the day format used by range and breakdown parameters.
const DateLayout = "2006-01-02"

// Preset names a quick time-range selection.
type Preset string

const (
	Preset12h    Preset = "12h"
	Preset24h    Preset = "24h"
	Preset7d     Preset = "7d"
	PresetAll    Preset = "all"
	PresetCustom Preset = "custom"
)

// allFallback is the lookback of the "all" preset when no stand carries a start time.
const allFallback = 30 * 24 * time.Hour

// TimeRange is a day-granular window. Start is inclusive from midnight UTC,
// End is inclusive through the last millisecond of its day. A zero bound is open.
type TimeRange struct {
	Start time.Time `json:"start" msgpack:"start"`
	End   time.Time `json:"end" msgpack:"end"`
}

// startBound returns the first instant inside the range.
func (r TimeRange) startBound() time.Time {
	if r.Start.IsZero() {
		return time.Time{}
	}
	return StartOfDay(r.Start)
}

// endBound returns the last instant inside the range.
func (r TimeRange) endBound() time.Time {
	if r.End.IsZero() {
		return time.Time{}
	}
	return EndOfDay(r.End)
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	if s := r.startBound(); !s.IsZero() && t.Before(s) {
		return false
	}
	if e := r.endBound(); !e.IsZero() && t.After(e) {
		return false
	}
	return true
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59.999 UTC of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Millisecond)
}

// ParseDate parses a YYYY-MM-DD day. Empty input yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseRange builds a custom range from two YYYY-MM-DD strings.
func ParseRange(start, end string) (TimeRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return TimeRange{}, err
	}
	if !s.IsZero() && !e.IsZero() && e.Before(s) {
		return TimeRange{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return TimeRange{Start: s, End: e}, nil
}

// PresetRange resolves a preset relative to now. The window covers whole days.
// "all" starts at the earliest stand start time, or 30 days back when none has one.
func PresetRange(preset Preset, now time.Time, stands []models.Stand) (TimeRange, error) {
	now = now.UTC()
	end := StartOfDay(now)

	switch preset {
	case Preset12h:
		return TimeRange{Start: StartOfDay(now.Add(-12 * time.Hour)), End: end}, nil
	case Preset24h:
		return TimeRange{Start: StartOfDay(now.Add(-24 * time.Hour)), End: end}, nil
	case Preset7d:
		return TimeRange{Start: StartOfDay(now.Add(-7 * 24 * time.Hour)), End: end}, nil
	case PresetAll, "":
		var min time.Time
		for i := range stands {
			st := stands[i].StartTime
			if st == nil {
				continue
			}
			if min.IsZero() || st.Before(min) {
				min = *st
			}
		}
		if min.IsZero() {
			min = now.Add(-allFallback)
		}
		return TimeRange{Start: StartOfDay(min), End: end}, nil
	default:
		return TimeRange{}, fmt.Errorf("unknown time preset %q", preset)
	}
}

// FilterByTimeRange keeps stands whose start time lies in the range.
// Stands without a start time are always kept. Order is preserved.
func FilterByTimeRange(stands []models.Stand, r TimeRange) []models.Stand {
	out := make([]models.Stand, 0, len(stands))
	for i := range stands {
		st := stands[i].StartTime
		if st == nil || r.Contains(*st) {
			out = append(out, stands[i])
		}
	}
	return out
}
