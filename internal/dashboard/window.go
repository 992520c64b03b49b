package dashboard

import (
	"github.com/rig-dashboard/backend/internal/analysis"
	"github.com/rig-dashboard/backend/internal/models"
)

// WindowView is the chart data of the stands started inside a time range.
type WindowView struct {
	Range         analysis.TimeRange       `json:"range" msgpack:"range"`
	StandCount    int                      `json:"standCount" msgpack:"standCount"`
	Series        models.SeriesSet         `json:"series" msgpack:"series"`
	ConnectionKPI analysis.ConnectionKPI   `json:"connectionKpi" msgpack:"connectionKpi"`
	OpsLimits     analysis.OpsLimits       `json:"opsLimits" msgpack:"opsLimits"`
	Metrics       analysis.DrillingMetrics `json:"metrics" msgpack:"metrics"`
}

// BuildWindow filters ds to r and derives series and metrics for the subset.
func BuildWindow(ds *models.Dataset, r analysis.TimeRange, opts Options) WindowView {
	stands := analysis.FilterByTimeRange(ds.Stands, r)
	return WindowView{
		Range:         r,
		StandCount:    len(stands),
		Series:        analysis.BuildSeries(stands),
		ConnectionKPI: analysis.ComputeConnectionKPI(stands, opts.Thresholds.ConnectionTarget),
		OpsLimits:     analysis.OpsLimitTotals(stands),
		Metrics:       analysis.ComputeDrillingMetrics(stands),
	}
}

// Detail returns the stand with its indicators, or ErrStandNotFound.
func Detail(ds *models.Dataset, id int, opts Options) (analysis.StandDetail, error) {
	s, ok := ds.Find(id)
	if !ok {
		return analysis.StandDetail{}, ErrStandNotFound
	}
	return opts.Thresholds.Detail(*s), nil
}
