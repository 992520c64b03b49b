// Package dashboard reshapes a normalized dataset into the structures the dashboard renders.
package dashboard

import (
	"errors"
	"fmt"

	"github.com/rig-dashboard/backend/internal/analysis"
	"github.com/rig-dashboard/backend/internal/models"
)

// ErrStandNotFound is returned when selecting a stand id the dataset does not hold.
var ErrStandNotFound = errors.New("stand not found")

// Options tune the derived figures.
type Options struct {
	Thresholds analysis.Thresholds
}

// DefaultOptions returns options with the default thresholds.
func DefaultOptions() Options {
	return Options{Thresholds: analysis.DefaultThresholds()}
}

// View is everything the main dashboard page needs for one dataset.
type View struct {
	Well          models.WellInfo          `json:"wellInfo" msgpack:"wellInfo"`
	Stands        []models.Stand           `json:"stands" msgpack:"stands"`
	Series        models.SeriesSet         `json:"series" msgpack:"series"`
	Current       models.CurrentParams     `json:"currentParams" msgpack:"currentParams"`
	ConnectionKPI analysis.ConnectionKPI   `json:"connectionKpi" msgpack:"connectionKpi"`
	OpsLimits     analysis.OpsLimits       `json:"opsLimits" msgpack:"opsLimits"`
	Metrics       analysis.DrillingMetrics `json:"metrics" msgpack:"metrics"`
	SkippedRows   int                      `json:"skippedRows" msgpack:"skippedRows"`
}

// Build assembles the View of ds.
func Build(ds *models.Dataset, opts Options) View {
	return View{
		Well:          Well(ds),
		Stands:        ds.Stands,
		Series:        analysis.BuildSeries(ds.Stands),
		Current:       Current(ds),
		ConnectionKPI: analysis.ComputeConnectionKPI(ds.Stands, opts.Thresholds.ConnectionTarget),
		OpsLimits:     analysis.OpsLimitTotals(ds.Stands),
		Metrics:       analysis.ComputeDrillingMetrics(ds.Stands),
		SkippedRows:   ds.SkippedRows,
	}
}

// Well summarizes the well from the last stand. An empty dataset yields only the id.
func Well(ds *models.Dataset) models.WellInfo {
	info := models.WellInfo{
		WellID:      ds.WellID,
		TotalStands: len(ds.Stands),
	}
	if n := len(ds.Stands); n > 0 {
		last := ds.Stands[n-1]
		info.TotalDepth = last.Depth
		info.CurrentStand = last.ID
	}
	return info
}

// Current snapshots the parameters of the active stand, falling back to the last one.
func Current(ds *models.Dataset) models.CurrentParams {
	s := ds.Active()
	if s == nil {
		if len(ds.Stands) == 0 {
			return models.CurrentParams{}
		}
		s = &ds.Stands[len(ds.Stands)-1]
	}
	return models.CurrentParams{
		StandID:  s.ID,
		ROP:      s.ROP,
		WOB:      s.WOB,
		RPM:      s.RPM,
		Torque:   s.Torque,
		FlowRate: s.FlowRate,
		Depth:    s.Depth,

		RotaryDuration: s.RotaryDuration,
		SlideDuration:  s.SlideDuration,

		ConnectionTime:           s.ConnectionTime,
		PreConnectionTime:        s.PreConnectionTime,
		PostConnectionTime:       s.PostConnectionTime,
		PreConnectionInControl:   s.PreConnectionInControl,
		PreConnectionOutControl:  s.PreConnectionOutControl,
		PostConnectionInControl:  s.PostConnectionInControl,
		PostConnectionOutControl: s.PostConnectionOutControl,

		ControlDrillingPercent: s.ControlDrillingPercent,
	}
}

// SelectStand activates the stand with the given id and deactivates all others.
// The returned dataset is a copy; ds is left unchanged.
func SelectStand(ds *models.Dataset, id int) (*models.Dataset, error) {
	next, ok := ds.WithActive(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrStandNotFound, id)
	}
	return next, nil
}
