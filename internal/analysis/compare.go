package analysis

import (
	"fmt"
	"sort"

	"github.com/rig-dashboard/backend/internal/models"
)

// QuickSelect names a preset stand selection for comparison.
type QuickSelect string

const (
	SelectCustom       QuickSelect = "custom"
	SelectLatest5      QuickSelect = "latest5"
	SelectLatest10     QuickSelect = "latest10"
	SelectBest5ROP     QuickSelect = "best5ROP"
	SelectBest5Control QuickSelect = "best5Control"
)

// SelectStands returns the stand ids picked by a quick-select option.
func SelectStands(stands []models.Stand, opt QuickSelect) ([]int, error) {
	sorted := make([]models.Stand, len(stands))
	copy(sorted, stands)

	var limit int
	switch opt {
	case SelectLatest5, SelectLatest10:
		limit = 5
		if opt == SelectLatest10 {
			limit = 10
		}
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	case SelectBest5ROP:
		limit = 5
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ROP > sorted[j].ROP })
	case SelectBest5Control:
		limit = 5
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ControlDrillingPercent > sorted[j].ControlDrillingPercent
		})
	default:
		return nil, fmt.Errorf("unknown quick select %q", opt)
	}

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	ids := make([]int, len(sorted))
	for i := range sorted {
		ids[i] = sorted[i].ID
	}
	return ids, nil
}

// Comparison aggregates a hand-picked set of stands.
type Comparison struct {
	StandCount                int               `json:"standCount" msgpack:"standCount"`
	StandIDs                  []int             `json:"standIds" msgpack:"standIds"`
	AvgROP                    float64           `json:"avgRop" msgpack:"avgRop"`
	AvgWOB                    float64           `json:"avgWob" msgpack:"avgWob"`
	AvgRPM                    float64           `json:"avgRpm" msgpack:"avgRpm"`
	AvgTorque                 float64           `json:"avgTorque" msgpack:"avgTorque"`
	AvgControlPercent         float64           `json:"avgControlPercent" msgpack:"avgControlPercent"`
	AvgPreConnectionTime      float64           `json:"avgPreConnectionTime" msgpack:"avgPreConnectionTime"`
	AvgPostConnectionTime     float64           `json:"avgPostConnectionTime" msgpack:"avgPostConnectionTime"`
	AvgTotalConnectionTime    float64           `json:"avgTotalConnectionTime" msgpack:"avgTotalConnectionTime"`
	AvgPreConnectionControl   float64           `json:"avgPreConnectionControl" msgpack:"avgPreConnectionControl"`
	AvgPostConnectionControl  float64           `json:"avgPostConnectionControl" msgpack:"avgPostConnectionControl"`
	AvgTotalConnectionControl float64           `json:"avgTotalConnectionControl" msgpack:"avgTotalConnectionControl"`
	OpsLimits                 OpsLimits         `json:"opsLimits" msgpack:"opsLimits"`
	TotalDistance             float64           `json:"totalDistance" msgpack:"totalDistance"`
	ROP                       models.TimeSeries `json:"rop" msgpack:"rop"`
	ControlPercent            models.TimeSeries `json:"controlPercent" msgpack:"controlPercent"`
}

// Compare aggregates the stands with the given ids. Unknown ids are ignored.
// An empty selection yields a zero Comparison.
func Compare(stands []models.Stand, ids []int) Comparison {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	picked := make([]models.Stand, 0, len(ids))
	for i := range stands {
		if _, ok := want[stands[i].ID]; ok {
			picked = append(picked, stands[i])
		}
	}
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].ID < picked[j].ID })

	mean := func(f func(s *models.Stand) float64) float64 {
		values := make([]float64, len(picked))
		for i := range picked {
			values[i] = f(&picked[i])
		}
		return Mean(values)
	}

	totals := connectionTotals(picked)
	c := Comparison{
		StandCount:             len(picked),
		StandIDs:               make([]int, len(picked)),
		AvgROP:                 mean(func(s *models.Stand) float64 { return s.ROP }),
		AvgWOB:                 mean(func(s *models.Stand) float64 { return s.WOB }),
		AvgRPM:                 mean(func(s *models.Stand) float64 { return s.RPM }),
		AvgTorque:              mean(func(s *models.Stand) float64 { return s.Torque }),
		AvgControlPercent:      mean(func(s *models.Stand) float64 { return float64(s.ControlDrillingPercent) }),
		AvgPreConnectionTime:   mean(func(s *models.Stand) float64 { return s.PreConnectionTime }),
		AvgPostConnectionTime:  mean(func(s *models.Stand) float64 { return s.PostConnectionTime }),
		AvgTotalConnectionTime: mean(func(s *models.Stand) float64 { return s.ConnectionTime }),

		AvgPreConnectionControl:   ControlPercent(totals.preIn, totals.preOut),
		AvgPostConnectionControl:  ControlPercent(totals.postIn, totals.postOut),
		AvgTotalConnectionControl: ControlPercent(totals.preIn+totals.postIn, totals.preOut+totals.postOut),

		OpsLimits:     OpsLimitTotals(picked),
		TotalDistance: TotalDistance(picked),
	}
	for i := range picked {
		c.StandIDs[i] = picked[i].ID
	}
	c.ROP, _ = SeriesFor(picked, models.SeriesROP)
	c.ControlPercent, _ = SeriesFor(picked, models.SeriesControlPercent)
	return c
}
