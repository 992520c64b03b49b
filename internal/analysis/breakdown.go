package analysis

import (
	"fmt"
	"time"

	"github.com/rig-dashboard/backend/internal/models"
)

// Interval is one slice of a day breakdown. End is exclusive.
type Interval struct {
	Start                  time.Time `json:"start" msgpack:"start"`
	End                    time.Time `json:"end" msgpack:"end"`
	Label                  string    `json:"label" msgpack:"label"`
	StandsCount            int       `json:"standsCount" msgpack:"standsCount"`
	TotalFootage           float64   `json:"totalFootage" msgpack:"totalFootage"`
	AvgControlPercent      float64   `json:"avgControlPercent" msgpack:"avgControlPercent"`
	PreConnControlPercent  float64   `json:"preConnControlPercent" msgpack:"preConnControlPercent"`
	PostConnControlPercent float64   `json:"postConnControlPercent" msgpack:"postConnControlPercent"`
	TotalPreConnControl    float64   `json:"totalPreConnControl" msgpack:"totalPreConnControl"`
	TotalPreConnManual     float64   `json:"totalPreConnManual" msgpack:"totalPreConnManual"`
	TotalPostConnControl   float64   `json:"totalPostConnControl" msgpack:"totalPostConnControl"`
	TotalPostConnManual    float64   `json:"totalPostConnManual" msgpack:"totalPostConnManual"`
	OpsLimits              OpsLimits `json:"opsLimits" msgpack:"opsLimits"`
}

// DayBreakdown is the time breakdown of the stands started on one UTC day.
type DayBreakdown struct {
	Date                       string                `json:"date" msgpack:"date"`
	StandsCount                int                   `json:"standsCount" msgpack:"standsCount"`
	TotalFootage               float64               `json:"totalFootage" msgpack:"totalFootage"`
	AvgControlPercent          float64               `json:"avgControlPercent" msgpack:"avgControlPercent"`
	TotalPreConnectionControl  float64               `json:"totalPreConnectionControl" msgpack:"totalPreConnectionControl"`
	TotalPreConnectionManual   float64               `json:"totalPreConnectionManual" msgpack:"totalPreConnectionManual"`
	TotalPostConnectionControl float64               `json:"totalPostConnectionControl" msgpack:"totalPostConnectionControl"`
	TotalPostConnectionManual  float64               `json:"totalPostConnectionManual" msgpack:"totalPostConnectionManual"`
	Breakdowns                 map[string][]Interval `json:"breakdowns" msgpack:"breakdowns"`
}

// breakdownViews maps a view name to its interval length in hours.
var breakdownViews = []struct {
	name  string
	hours int
}{
	{"6h", 6},
	{"12h", 12},
	{"24h", 24},
}

// Breakdown splits day into 6h, 12h and 24h intervals and aggregates each.
// Stands without a start time never appear in a breakdown.
func Breakdown(stands []models.Stand, day time.Time) DayBreakdown {
	start := StartOfDay(day)
	end := EndOfDay(day)

	dayStands := make([]models.Stand, 0)
	for i := range stands {
		st := stands[i].StartTime
		if st == nil || st.Before(start) || st.After(end) {
			continue
		}
		dayStands = append(dayStands, stands[i])
	}

	totals := connectionTotals(dayStands)
	out := DayBreakdown{
		Date:                       start.Format(DateLayout),
		StandsCount:                len(dayStands),
		TotalFootage:               TotalDistance(dayStands),
		AvgControlPercent:          WeightedControlPercent(dayStands),
		TotalPreConnectionControl:  totals.preIn,
		TotalPreConnectionManual:   totals.preOut,
		TotalPostConnectionControl: totals.postIn,
		TotalPostConnectionManual:  totals.postOut,
		Breakdowns:                 make(map[string][]Interval, len(breakdownViews)),
	}

	for _, view := range breakdownViews {
		count := 24 / view.hours
		step := time.Duration(view.hours) * time.Hour
		intervals := make([]Interval, 0, count)
		for i := 0; i < count; i++ {
			from := start.Add(time.Duration(i) * step)
			intervals = append(intervals, aggregateInterval(dayStands, from, from.Add(step)))
		}
		out.Breakdowns[view.name] = intervals
	}
	return out
}

func aggregateInterval(stands []models.Stand, from, to time.Time) Interval {
	subset := make([]models.Stand, 0)
	for i := range stands {
		st := stands[i].StartTime
		if !st.Before(from) && st.Before(to) {
			subset = append(subset, stands[i])
		}
	}
	totals := connectionTotals(subset)
	return Interval{
		Start:                  from,
		End:                    to,
		Label:                  fmt.Sprintf("%s - %s", from.Format("15:04"), to.Format("15:04")),
		StandsCount:            len(subset),
		TotalFootage:           TotalDistance(subset),
		AvgControlPercent:      WeightedControlPercent(subset),
		PreConnControlPercent:  ControlPercent(totals.preIn, totals.preOut),
		PostConnControlPercent: ControlPercent(totals.postIn, totals.postOut),
		TotalPreConnControl:    totals.preIn,
		TotalPreConnManual:     totals.preOut,
		TotalPostConnControl:   totals.postIn,
		TotalPostConnManual:    totals.postOut,
		OpsLimits:              OpsLimitTotals(subset),
	}
}

type phaseTotals struct {
	preIn, preOut, postIn, postOut float64
}

func connectionTotals(stands []models.Stand) phaseTotals {
	var t phaseTotals
	for i := range stands {
		s := &stands[i]
		t.preIn += finite(s.PreConnectionInControl)
		t.preOut += finite(s.PreConnectionOutControl)
		t.postIn += finite(s.PostConnectionInControl)
		t.postOut += finite(s.PostConnectionOutControl)
	}
	return t
}
