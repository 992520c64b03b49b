// Package drilling turns parsed rows into the normalized stand sequence.
package drilling

import (
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rig-dashboard/backend/internal/analysis"
	"github.com/rig-dashboard/backend/internal/logger"
	"github.com/rig-dashboard/backend/internal/models"
	"github.com/rig-dashboard/backend/internal/parser"
)

// ErrNoValidData is matched by every NoValidDataError.
var ErrNoValidData = errors.New("No valid drilling data found")

// NoValidDataError is returned when a decoded file has no row with all required fields.
type NoValidDataError struct {
	Rows int // rows inspected
}

func (e *NoValidDataError) Error() string {
	return ErrNoValidData.Error()
}

func (e *NoValidDataError) Is(target error) bool {
	return target == ErrNoValidData
}

// Normalizer builds stands from raw records.
type Normalizer struct {
	log zerolog.Logger
}

// NewNormalizer creates a normalizer that logs through the "normalizer" component.
func NewNormalizer() *Normalizer {
	return &Normalizer{log: logger.Get("normalizer")}
}

// Normalize filters invalid rows, converts the rest into stands sorted by id,
// and marks the last stand active. Rows sharing a stand index collapse to the later row.
func (n *Normalizer) Normalize(records []parser.Record) (*models.Dataset, error) {
	byID := make(map[int]int, len(records))
	stands := make([]models.Stand, 0, len(records))
	wellID := ""
	skipped := 0

	for i, rec := range records {
		if !IsValid(rec) {
			skipped++
			continue
		}
		id, ok := parser.Int(rec[ColStandIndex])
		if !ok {
			skipped++
			n.log.Debug().Int("row", i+1).Interface("standIndex", rec[ColStandIndex]).Msg("skipping row with unparseable stand index")
			continue
		}

		if wellID == "" {
			wellID = parser.String(rec[ColWellID])
			if wellID == "" {
				wellID = DefaultWellID
			}
		}

		stand := BuildStand(id, rec)
		if pos, dup := byID[id]; dup {
			n.log.Warn().Int("standId", id).Int("row", i+1).Msg("duplicate stand index, later row wins")
			stands[pos] = stand
			continue
		}
		byID[id] = len(stands)
		stands = append(stands, stand)
	}

	if len(stands) == 0 {
		return nil, &NoValidDataError{Rows: len(records)}
	}

	sort.SliceStable(stands, func(i, j int) bool {
		return stands[i].ID < stands[j].ID
	})
	stands[len(stands)-1].IsActive = true

	if skipped > 0 {
		n.log.Debug().Int("skipped", skipped).Int("rows", len(records)).Msg("dropped incomplete rows")
	}

	return &models.Dataset{
		WellID:      wellID,
		Stands:      stands,
		RowCount:    len(records),
		SkippedRows: skipped,
	}, nil
}

// IsValid reports whether every required column has a value.
func IsValid(rec parser.Record) bool {
	for _, col := range RequiredColumns {
		if !parser.Present(rec[col]) {
			return false
		}
	}
	return true
}

// BuildStand converts one valid record. Absent or unparseable numbers become 0;
// unparseable connection timings are also flagged in Stand.Unparsed.
func BuildStand(id int, rec parser.Record) models.Stand {
	num := func(col string) float64 {
		return parser.FloatOr(rec[col], 0)
	}
	count := func(col string) int {
		return parser.IntOr(rec[col], 0)
	}
	var unparsed models.ConnectionField
	conn := func(col string, field models.ConnectionField) float64 {
		v := rec[col]
		if !parser.Present(v) {
			return 0
		}
		f, ok := parser.Float(v)
		if !ok {
			unparsed |= field
		}
		return f
	}

	s := models.Stand{
		ID:        id,
		Title:     models.StandLabel(id),
		StandType: parser.String(rec[ColStandType]),

		StartDepth: num(ColStartDepth),
		EndDepth:   num(ColEndDepth),

		ROP:      num(ColROP),
		WOB:      num(ColWOB),
		RPM:      num(ColRPM),
		Torque:   num(ColTorque),
		FlowRate: num(ColFlowRate),

		RotaryDuration: num(ColRotaryDuration) / 3600,
		SlideDuration:  num(ColSlideDuration) / 3600,

		ConnectionTime:           conn(ColConnection, models.FieldConnectionTime),
		PreConnectionTime:        conn(ColPreConnection, models.FieldPreConnectionTime),
		PostConnectionTime:       conn(ColPostConnection, models.FieldPostConnectionTime),
		PreConnectionInControl:   conn(ColPreInControl, models.FieldPreConnectionInControl),
		PreConnectionOutControl:  conn(ColPreOutControl, models.FieldPreConnectionOutControl),
		PostConnectionInControl:  conn(ColPostInControl, models.FieldPostConnectionInControl),
		PostConnectionOutControl: conn(ColPostOutControl, models.FieldPostConnectionOutControl),
		DrillingInControl:        num(ColDrillingInControl),
		DrillingOutControl:       num(ColDrillingOutCtrl),

		OpsLimitRopMaxCount:    count(ColOpsLimitROP),
		OpsLimitWobMaxCount:    count(ColOpsLimitWOB),
		OpsLimitTorqueMaxCount: count(ColOpsLimitTorque),
		OpsLimitRpmMaxCount:    count(ColOpsLimitRPM),
		OpsLimitDiffPMaxCount:  count(ColOpsLimitDiffP),
	}
	s.Unparsed = unparsed
	if s.StandType == "" {
		s.StandType = DefaultStandType
	}

	s.Depth = s.EndDepth
	s.DistanceDrilled = s.EndDepth - s.StartDepth

	s.ControlDrillingPercent = roundPercent(analysis.ControlPercent(s.DrillingInControl, s.DrillingOutControl))
	s.PreConnectionControlPercent = analysis.ControlPercent(s.PreConnectionInControl, s.PreConnectionOutControl)
	s.PostConnectionControlPercent = analysis.ControlPercent(s.PostConnectionInControl, s.PostConnectionOutControl)

	if t, ok := parser.Time(rec[ColStartTime]); ok {
		s.StartTime = &t
	}
	if t, ok := parser.Time(rec[ColEndTime]); ok {
		s.EndTime = &t
	}

	return s
}

// roundPercent rounds half up and clamps to 0..100.
func roundPercent(p float64) int {
	r := analysis.Round(p)
	switch {
	case r < 0:
		return 0
	case r > 100:
		return 100
	}
	return int(r)
}
