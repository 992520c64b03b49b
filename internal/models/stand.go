package models

import "time"

// Stand is one drilled pipe segment and the operation performed while it was in use.
type Stand struct {
	ID        int        `json:"id" msgpack:"id"`
	Title     string     `json:"title" msgpack:"title"`
	StandType string     `json:"standType" msgpack:"standType"`
	StartTime *time.Time `json:"startTime,omitempty" msgpack:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty" msgpack:"endTime,omitempty"`

	// Depths in feet. DistanceDrilled is EndDepth - StartDepth, never corrected.
	Depth           float64 `json:"depth" msgpack:"depth"`
	StartDepth      float64 `json:"startDepth" msgpack:"startDepth"`
	EndDepth        float64 `json:"endDepth" msgpack:"endDepth"`
	DistanceDrilled float64 `json:"distanceDrilled" msgpack:"distanceDrilled"`

	ROP      float64 `json:"rop" msgpack:"rop"`
	WOB      float64 `json:"wob" msgpack:"wob"`
	RPM      float64 `json:"rpm" msgpack:"rpm"`
	Torque   float64 `json:"torque" msgpack:"torque"`
	FlowRate float64 `json:"flowRate" msgpack:"flowRate"`

	// Hours
	RotaryDuration float64 `json:"rotaryDuration" msgpack:"rotaryDuration"`
	SlideDuration  float64 `json:"slideDuration" msgpack:"slideDuration"`

	// Seconds
	ConnectionTime           float64 `json:"connectionTime" msgpack:"connectionTime"`
	PreConnectionTime        float64 `json:"preConnectionTime" msgpack:"preConnectionTime"`
	PostConnectionTime       float64 `json:"postConnectionTime" msgpack:"postConnectionTime"`
	PreConnectionInControl   float64 `json:"preConnectionInControl" msgpack:"preConnectionInControl"`
	PreConnectionOutControl  float64 `json:"preConnectionOutControl" msgpack:"preConnectionOutControl"`
	PostConnectionInControl  float64 `json:"postConnectionInControl" msgpack:"postConnectionInControl"`
	PostConnectionOutControl float64 `json:"postConnectionOutControl" msgpack:"postConnectionOutControl"`
	DrillingInControl        float64 `json:"drillingDurationInControl" msgpack:"drillingDurationInControl"`
	DrillingOutControl       float64 `json:"drillingDurationOutControl" msgpack:"drillingDurationOutControl"`

	ControlDrillingPercent       int     `json:"controlDrillingPercent" msgpack:"controlDrillingPercent"`
	PreConnectionControlPercent  float64 `json:"preConnectionControlPercent" msgpack:"preConnectionControlPercent"`
	PostConnectionControlPercent float64 `json:"postConnectionControlPercent" msgpack:"postConnectionControlPercent"`

	OpsLimitRopMaxCount    int `json:"opsLimitRopMaxCount" msgpack:"opsLimitRopMaxCount"`
	OpsLimitWobMaxCount    int `json:"opsLimitWobMaxCount" msgpack:"opsLimitWobMaxCount"`
	OpsLimitTorqueMaxCount int `json:"opsLimitTorqueMaxCount" msgpack:"opsLimitTorqueMaxCount"`
	OpsLimitRpmMaxCount    int `json:"opsLimitRpmMaxCount" msgpack:"opsLimitRpmMaxCount"`
	OpsLimitDiffPMaxCount  int `json:"opsLimitDiffPMaxCount" msgpack:"opsLimitDiffPMaxCount"`

	IsActive bool `json:"isActive" msgpack:"isActive"`

	// Connection cells that held text but no number. They are left out of averages.
	Unparsed ConnectionField `json:"-" msgpack:"-"`
}

// ConnectionField flags one of the connection timing columns.
type ConnectionField uint8

const (
	FieldConnectionTime ConnectionField = 1 << iota
	FieldPreConnectionTime
	FieldPostConnectionTime
	FieldPreConnectionInControl
	FieldPreConnectionOutControl
	FieldPostConnectionInControl
	FieldPostConnectionOutControl
)

// Parsed reports whether field held a number, or nothing at all.
func (s *Stand) Parsed(field ConnectionField) bool {
	return s.Unparsed&field == 0
}

// Label is the chart label for the stand.
func (s *Stand) Label() string {
	return StandLabel(s.ID)
}

// Dataset is the normalized result of one ingested file.
type Dataset struct {
	WellID      string  `json:"wellId" msgpack:"wellId"`
	Stands      []Stand `json:"stands" msgpack:"stands"`
	RowCount    int     `json:"rowCount" msgpack:"rowCount"`
	SkippedRows int     `json:"skippedRows" msgpack:"skippedRows"`
}

// Active returns the active stand, or nil when the dataset is empty.
func (d *Dataset) Active() *Stand {
	for i := range d.Stands {
		if d.Stands[i].IsActive {
			return &d.Stands[i]
		}
	}
	return nil
}

// Find returns the stand with the given id.
func (d *Dataset) Find(id int) (*Stand, bool) {
	for i := range d.Stands {
		if d.Stands[i].ID == id {
			return &d.Stands[i], true
		}
	}
	return nil, false
}

// WithActive returns a copy of the dataset where only the given stand is active.
// The receiver is not modified, so readers holding the old dataset never see a torn state.
func (d *Dataset) WithActive(id int) (*Dataset, bool) {
	if _, ok := d.Find(id); !ok {
		return nil, false
	}
	next := *d
	next.Stands = make([]Stand, len(d.Stands))
	copy(next.Stands, d.Stands)
	for i := range next.Stands {
		next.Stands[i].IsActive = next.Stands[i].ID == id
	}
	return &next, true
}

// WellInfo summarizes the well from the last stand in sorted order.
type WellInfo struct {
	WellID       string  `json:"wellId" msgpack:"wellId"`
	TotalStands  int     `json:"totalStands" msgpack:"totalStands"`
	TotalDepth   float64 `json:"totalDepth" msgpack:"totalDepth"`
	CurrentStand int     `json:"currentStand" msgpack:"currentStand"`
}

// CurrentParams is the parameter snapshot of the active stand.
type CurrentParams struct {
	StandID  int     `json:"standId" msgpack:"standId"`
	ROP      float64 `json:"rop" msgpack:"rop"`
	WOB      float64 `json:"wob" msgpack:"wob"`
	RPM      float64 `json:"rpm" msgpack:"rpm"`
	Torque   float64 `json:"torque" msgpack:"torque"`
	FlowRate float64 `json:"flowRate" msgpack:"flowRate"`
	Depth    float64 `json:"depth" msgpack:"depth"`

	RotaryDuration float64 `json:"rotaryDuration" msgpack:"rotaryDuration"`
	SlideDuration  float64 `json:"slideDuration" msgpack:"slideDuration"`

	ConnectionTime           float64 `json:"connectionTime" msgpack:"connectionTime"`
	PreConnectionTime        float64 `json:"preConnectionTime" msgpack:"preConnectionTime"`
	PostConnectionTime       float64 `json:"postConnectionTime" msgpack:"postConnectionTime"`
	PreConnectionInControl   float64 `json:"preConnectionInControl" msgpack:"preConnectionInControl"`
	PreConnectionOutControl  float64 `json:"preConnectionOutControl" msgpack:"preConnectionOutControl"`
	PostConnectionInControl  float64 `json:"postConnectionInControl" msgpack:"postConnectionInControl"`
	PostConnectionOutControl float64 `json:"postConnectionOutControl" msgpack:"postConnectionOutControl"`

	ControlDrillingPercent int `json:"controlDrillingPercent" msgpack:"controlDrillingPercent"`
}
