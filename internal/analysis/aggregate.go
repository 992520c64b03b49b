package analysis

import "github.com/rig-dashboard/backend/internal/models"

// DefaultConnectionTarget is the connection time, in seconds, that scores 0% efficiency.
const DefaultConnectionTarget = 15 * 60

// ConnectionAverages holds per-stand means of the connection timings, in seconds.
type ConnectionAverages struct {
	ConnectionTime           float64 `json:"connectionTime" msgpack:"connectionTime"`
	PreConnectionTime        float64 `json:"preConnectionTime" msgpack:"preConnectionTime"`
	PostConnectionTime       float64 `json:"postConnectionTime" msgpack:"postConnectionTime"`
	PreConnectionInControl   float64 `json:"preConnectionInControl" msgpack:"preConnectionInControl"`
	PreConnectionOutControl  float64 `json:"preConnectionOutControl" msgpack:"preConnectionOutControl"`
	PostConnectionInControl  float64 `json:"postConnectionInControl" msgpack:"postConnectionInControl"`
	PostConnectionOutControl float64 `json:"postConnectionOutControl" msgpack:"postConnectionOutControl"`
}

// AverageConnections computes ConnectionAverages over the stands. Cells that
// held unparseable text are skipped per field; empty cells count as 0.
func AverageConnections(stands []models.Stand) ConnectionAverages {
	pick := func(field models.ConnectionField, f func(s *models.Stand) float64) float64 {
		values := make([]float64, 0, len(stands))
		for i := range stands {
			if stands[i].Parsed(field) {
				values = append(values, f(&stands[i]))
			}
		}
		return Mean(values)
	}
	return ConnectionAverages{
		ConnectionTime:           pick(models.FieldConnectionTime, func(s *models.Stand) float64 { return s.ConnectionTime }),
		PreConnectionTime:        pick(models.FieldPreConnectionTime, func(s *models.Stand) float64 { return s.PreConnectionTime }),
		PostConnectionTime:       pick(models.FieldPostConnectionTime, func(s *models.Stand) float64 { return s.PostConnectionTime }),
		PreConnectionInControl:   pick(models.FieldPreConnectionInControl, func(s *models.Stand) float64 { return s.PreConnectionInControl }),
		PreConnectionOutControl:  pick(models.FieldPreConnectionOutControl, func(s *models.Stand) float64 { return s.PreConnectionOutControl }),
		PostConnectionInControl:  pick(models.FieldPostConnectionInControl, func(s *models.Stand) float64 { return s.PostConnectionInControl }),
		PostConnectionOutControl: pick(models.FieldPostConnectionOutControl, func(s *models.Stand) float64 { return s.PostConnectionOutControl }),
	}
}

// TotalDistance sums the drilled distance of the stands.
func TotalDistance(stands []models.Stand) float64 {
	var total float64
	for i := range stands {
		total += finite(stands[i].DistanceDrilled)
	}
	return total
}

// WeightedControlPercent is the distance-weighted mean of controlDrillingPercent.
// It returns 0 unless the total distance is positive.
func WeightedControlPercent(stands []models.Stand) float64 {
	var weighted, total float64
	for i := range stands {
		d := finite(stands[i].DistanceDrilled)
		weighted += float64(stands[i].ControlDrillingPercent) * d
		total += d
	}
	if total <= 0 {
		return 0
	}
	return ratio(weighted, total)
}

// OpsLimits sums the ops-limit exceedance counters.
type OpsLimits struct {
	ROP    int `json:"rop" msgpack:"rop"`
	WOB    int `json:"wob" msgpack:"wob"`
	Torque int `json:"torque" msgpack:"torque"`
	RPM    int `json:"rpm" msgpack:"rpm"`
	DiffP  int `json:"diffP" msgpack:"diffP"`
	Total  int `json:"total" msgpack:"total"`
}

// OpsLimitTotals sums each ops-limit counter across the stands.
func OpsLimitTotals(stands []models.Stand) OpsLimits {
	var o OpsLimits
	for i := range stands {
		s := &stands[i]
		o.ROP += s.OpsLimitRopMaxCount
		o.WOB += s.OpsLimitWobMaxCount
		o.Torque += s.OpsLimitTorqueMaxCount
		o.RPM += s.OpsLimitRpmMaxCount
		o.DiffP += s.OpsLimitDiffPMaxCount
	}
	o.Total = o.ROP + o.WOB + o.Torque + o.RPM + o.DiffP
	return o
}

// DrillingMetrics are the footage and control figures of a stand subset.
type DrillingMetrics struct {
	TotalDistanceDrilled         float64 `json:"totalDistanceDrilled" msgpack:"totalDistanceDrilled"`
	TotalControlDrillingPercent  float64 `json:"totalControlDrillingPercent" msgpack:"totalControlDrillingPercent"`
	DrillInControlDistance       float64 `json:"drillInControlDistance" msgpack:"drillInControlDistance"`
	PreConnectionControlPercent  float64 `json:"preConnectionControlPercent" msgpack:"preConnectionControlPercent"`
	PostConnectionControlPercent float64 `json:"postConnectionControlPercent" msgpack:"postConnectionControlPercent"`
	TotalMeters                  float64 `json:"totalMeters" msgpack:"totalMeters"`
	DrillInControlMeters         float64 `json:"drillInControlMeters" msgpack:"drillInControlMeters"`
}

// ComputeDrillingMetrics derives DrillingMetrics. Connection control shares are
// relative to the phase totals (in-control time over phase duration).
func ComputeDrillingMetrics(stands []models.Stand) DrillingMetrics {
	total := TotalDistance(stands)
	control := WeightedControlPercent(stands)
	inControl := total * control / 100

	var preTotal, preIn, postTotal, postIn float64
	for i := range stands {
		s := &stands[i]
		preTotal += finite(s.PreConnectionTime)
		preIn += finite(s.PreConnectionInControl)
		postTotal += finite(s.PostConnectionTime)
		postIn += finite(s.PostConnectionInControl)
	}

	return DrillingMetrics{
		TotalDistanceDrilled:         total,
		TotalControlDrillingPercent:  control,
		DrillInControlDistance:       inControl,
		PreConnectionControlPercent:  ratio(preIn, preTotal) * 100,
		PostConnectionControlPercent: ratio(postIn, postTotal) * 100,
		TotalMeters:                  total * FeetToMeters,
		DrillInControlMeters:         inControl * FeetToMeters,
	}
}

// ConnectionKPI is the connection performance card.
type ConnectionKPI struct {
	Averages            ConnectionAverages `json:"averages" msgpack:"averages"`
	PreControlPercent   int                `json:"preControlPercent" msgpack:"preControlPercent"`
	PostControlPercent  int                `json:"postControlPercent" msgpack:"postControlPercent"`
	TotalControlPercent int                `json:"totalControlPercent" msgpack:"totalControlPercent"`
	Efficiency          int                `json:"efficiency" msgpack:"efficiency"`
	PreClass            string             `json:"preClass" msgpack:"preClass"`
	PostClass           string             `json:"postClass" msgpack:"postClass"`
	TotalClass          string             `json:"totalClass" msgpack:"totalClass"`
}

// ComputeConnectionKPI builds the KPI card from the connection averages.
// Efficiency is round(100 - avgConnection/target*100); target <= 0 uses the default.
func ComputeConnectionKPI(stands []models.Stand, targetSeconds float64) ConnectionKPI {
	if targetSeconds <= 0 {
		targetSeconds = DefaultConnectionTarget
	}
	avg := AverageConnections(stands)

	pre := int(Round(ControlPercent(avg.PreConnectionInControl, avg.PreConnectionOutControl)))
	post := int(Round(ControlPercent(avg.PostConnectionInControl, avg.PostConnectionOutControl)))
	total := int(Round(ControlPercent(
		avg.PreConnectionInControl+avg.PostConnectionInControl,
		avg.PreConnectionOutControl+avg.PostConnectionOutControl,
	)))

	return ConnectionKPI{
		Averages:            avg,
		PreControlPercent:   pre,
		PostControlPercent:  post,
		TotalControlPercent: total,
		Efficiency:          int(Round(100 - ratio(avg.ConnectionTime, targetSeconds)*100)),
		PreClass:            ControlClass(float64(pre)),
		PostClass:           ControlClass(float64(post)),
		TotalClass:          ControlClass(float64(total)),
	}
}
