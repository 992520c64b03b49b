package analysis

import "github.com/rig-dashboard/backend/internal/models"

var seriesValue = map[models.SeriesKey]func(s *models.Stand) float64{
	models.SeriesROP:                   func(s *models.Stand) float64 { return s.ROP },
	models.SeriesWOB:                   func(s *models.Stand) float64 { return s.WOB },
	models.SeriesRPM:                   func(s *models.Stand) float64 { return s.RPM },
	models.SeriesTorque:                func(s *models.Stand) float64 { return s.Torque },
	models.SeriesDepth:                 func(s *models.Stand) float64 { return s.Depth },
	models.SeriesControlPercent:        func(s *models.Stand) float64 { return float64(s.ControlDrillingPercent) },
	models.SeriesConnectionTime:        func(s *models.Stand) float64 { return s.ConnectionTime },
	models.SeriesPreConnectionTime:     func(s *models.Stand) float64 { return s.PreConnectionTime },
	models.SeriesPostConnectionTime:    func(s *models.Stand) float64 { return s.PostConnectionTime },
	models.SeriesPreConnectionControl:  func(s *models.Stand) float64 { return s.PreConnectionInControl },
	models.SeriesPreConnectionManual:   func(s *models.Stand) float64 { return s.PreConnectionOutControl },
	models.SeriesPostConnectionControl: func(s *models.Stand) float64 { return s.PostConnectionInControl },
	models.SeriesPostConnectionManual:  func(s *models.Stand) float64 { return s.PostConnectionOutControl },
	models.SeriesOpsLimitROP:           func(s *models.Stand) float64 { return float64(s.OpsLimitRopMaxCount) },
	models.SeriesOpsLimitWOB:           func(s *models.Stand) float64 { return float64(s.OpsLimitWobMaxCount) },
	models.SeriesOpsLimitTorque:        func(s *models.Stand) float64 { return float64(s.OpsLimitTorqueMaxCount) },
	models.SeriesOpsLimitRPM:           func(s *models.Stand) float64 { return float64(s.OpsLimitRpmMaxCount) },
	models.SeriesOpsLimitDiffP:         func(s *models.Stand) float64 { return float64(s.OpsLimitDiffPMaxCount) },
}

// BuildSeries returns one TimeSeries per key, aligned with the given stand order.
// Stands are expected in ascending id order; labels are "Stand {id}".
func BuildSeries(stands []models.Stand) models.SeriesSet {
	labels := make([]string, len(stands))
	for i := range stands {
		labels[i] = stands[i].Label()
	}

	set := make(models.SeriesSet, len(models.SeriesKeys))
	for _, key := range models.SeriesKeys {
		value := seriesValue[key]
		data := make([]float64, len(stands))
		for i := range stands {
			data[i] = finite(value(&stands[i]))
		}
		// Each series owns its label slice so callers can trim them independently.
		l := make([]string, len(labels))
		copy(l, labels)
		set[key] = models.TimeSeries{Labels: l, Data: data}
	}
	return set
}

// SeriesFor builds a single series, or false for an unknown key.
func SeriesFor(stands []models.Stand, key models.SeriesKey) (models.TimeSeries, bool) {
	value, ok := seriesValue[key]
	if !ok {
		return models.TimeSeries{}, false
	}
	ts := models.TimeSeries{
		Labels: make([]string, len(stands)),
		Data:   make([]float64, len(stands)),
	}
	for i := range stands {
		ts.Labels[i] = stands[i].Label()
		ts.Data[i] = finite(value(&stands[i]))
	}
	return ts, true
}
