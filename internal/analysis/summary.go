package analysis

import (
	"fmt"
	"time"

	"github.com/rig-dashboard/backend/internal/models"
)

// Period names an ops-limits tracker window within a selected day.
type Period string

const (
	PeriodAll Period = "all"
	Period24h Period = "24h"
	Period12h Period = "12h"
	Period6h  Period = "6h"
)

// Summary is the ops-limits tracker card. Connection figures are in minutes.
type Summary struct {
	Period                Period    `json:"period" msgpack:"period"`
	Window                TimeRange `json:"window" msgpack:"window"`
	StandsCount           int       `json:"standsCount" msgpack:"standsCount"`
	TotalFootage          float64   `json:"totalFootage" msgpack:"totalFootage"`
	AvgControlPercent     float64   `json:"avgControlPercent" msgpack:"avgControlPercent"`
	PreConnectionControl  float64   `json:"preConnectionControl" msgpack:"preConnectionControl"`
	PreConnectionManual   float64   `json:"preConnectionManual" msgpack:"preConnectionManual"`
	PostConnectionControl float64   `json:"postConnectionControl" msgpack:"postConnectionControl"`
	PostConnectionManual  float64   `json:"postConnectionManual" msgpack:"postConnectionManual"`
	OpsLimits             OpsLimits `json:"opsLimits" msgpack:"opsLimits"`
}

// window returns the instant bounds of a period on day. Every window ends at
// the last instant of day; 12h and 6h reach back before its midnight.
func window(period Period, day time.Time) (time.Time, time.Time, error) {
	start, end := StartOfDay(day), EndOfDay(day)
	switch period {
	case Period24h:
		return start, end, nil
	case Period12h:
		return start.Add(-12 * time.Hour), end, nil
	case Period6h:
		return start.Add(-6 * time.Hour), end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period %q", period)
	}
}

// Summarize computes the tracker card. PeriodAll covers every stand; other
// periods keep only stands whose start time falls in the window of day.
func Summarize(stands []models.Stand, period Period, day time.Time) (Summary, error) {
	if period == "" {
		period = PeriodAll
	}
	sum := Summary{Period: period}

	subset := stands
	if period != PeriodAll {
		from, to, err := window(period, day)
		if err != nil {
			return Summary{}, err
		}
		sum.Window = TimeRange{Start: from, End: to}
		subset = make([]models.Stand, 0, len(stands))
		for i := range stands {
			st := stands[i].StartTime
			if st == nil || st.Before(from) || st.After(to) {
				continue
			}
			subset = append(subset, stands[i])
		}
	}

	totals := connectionTotals(subset)
	sum.StandsCount = len(subset)
	sum.TotalFootage = TotalDistance(subset)
	sum.AvgControlPercent = WeightedControlPercent(subset)
	sum.PreConnectionControl = totals.preIn / 60
	sum.PreConnectionManual = totals.preOut / 60
	sum.PostConnectionControl = totals.postIn / 60
	sum.PostConnectionManual = totals.postOut / 60
	sum.OpsLimits = OpsLimitTotals(subset)
	return sum, nil
}
