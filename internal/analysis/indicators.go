package analysis

import "github.com/rig-dashboard/backend/internal/models"

// Thresholds tune the stand indicators and efficiency figures.
type Thresholds struct {
	HighROP          float64 // ft/h, exclusive
	LowROP           float64 // ft/h, exclusive, only for rop > 0
	HighWOB          float64 // 1000 lbf, exclusive
	LongSection      float64 // ft, exclusive
	HighControl      float64 // percent, inclusive
	LowControl       float64 // percent, exclusive, only for control > 0
	ROPBenchmark     float64 // ft/h that scores 100% efficiency
	ConnectionTarget float64 // seconds that score 0% connection efficiency
}

// DefaultThresholds returns the dashboard defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighROP:          100,
		LowROP:           50,
		HighWOB:          15,
		LongSection:      90,
		HighControl:      80,
		LowControl:       40,
		ROPBenchmark:     150,
		ConnectionTarget: DefaultConnectionTarget,
	}
}

// Indicator is a badge shown next to a stand.
type Indicator struct {
	Type  string `json:"type" msgpack:"type"`
	Title string `json:"title" msgpack:"title"`
}

// Indicators flags notable drilling performance of one stand.
func (th Thresholds) Indicators(s *models.Stand) []Indicator {
	out := make([]Indicator, 0, 4)
	if s.ROP > th.HighROP {
		out = append(out, Indicator{Type: "high-performance", Title: "High ROP"})
	}
	if s.WOB > th.HighWOB {
		out = append(out, Indicator{Type: "high-wob", Title: "High WOB"})
	}
	if s.ROP < th.LowROP && s.ROP > 0 {
		out = append(out, Indicator{Type: "low-performance", Title: "Low ROP"})
	}
	if s.DistanceDrilled > th.LongSection {
		out = append(out, Indicator{Type: "long-section", Title: "Long Section"})
	}
	cp := float64(s.ControlDrillingPercent)
	if cp >= th.HighControl {
		out = append(out, Indicator{Type: "high-control", Title: "High Control %"})
	}
	if cp < th.LowControl && cp > 0 {
		out = append(out, Indicator{Type: "low-control", Title: "Low Control %"})
	}
	return out
}

// Efficiency scores rop against the benchmark, clamped to 0..100.
func (th Thresholds) Efficiency(rop float64) float64 {
	bench := th.ROPBenchmark
	if bench <= 0 {
		bench = DefaultThresholds().ROPBenchmark
	}
	e := ratio(rop, bench) * 100
	switch {
	case e < 0:
		return 0
	case e > 100:
		return 100
	}
	return e
}

// ControlRating describes a control-drilling percentage.
func ControlRating(percent float64) string {
	switch {
	case percent >= 80:
		return "Excellent"
	case percent >= 60:
		return "Good"
	case percent >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}

// ControlClass buckets a percentage for connection KPI styling.
func ControlClass(percent float64) string {
	switch {
	case percent >= 80:
		return "high"
	case percent >= 60:
		return "medium"
	case percent >= 40:
		return "low"
	default:
		return "very-low"
	}
}

// StandDetail is a stand with its badges and ratings.
type StandDetail struct {
	Stand                  models.Stand `json:"stand" msgpack:"stand"`
	Indicators             []Indicator  `json:"indicators" msgpack:"indicators"`
	ControlRating          string       `json:"controlRating" msgpack:"controlRating"`
	Efficiency             float64      `json:"efficiency" msgpack:"efficiency"`
	TotalConnectionControl float64      `json:"totalConnectionControlPercent" msgpack:"totalConnectionControlPercent"`
}

// Detail assembles the StandDetail of s.
func (th Thresholds) Detail(s models.Stand) StandDetail {
	return StandDetail{
		Stand:         s,
		Indicators:    th.Indicators(&s),
		ControlRating: ControlRating(float64(s.ControlDrillingPercent)),
		Efficiency:    th.Efficiency(s.ROP),
		TotalConnectionControl: ControlPercent(
			s.PreConnectionInControl+s.PostConnectionInControl,
			s.PreConnectionOutControl+s.PostConnectionOutControl,
		),
	}
}
