package models

import "strconv"

// TimeSeries pairs chart labels with values, index-aligned with the sorted stands.
type TimeSeries struct {
	Labels []string  `json:"labels" msgpack:"labels"`
	Data   []float64 `json:"data" msgpack:"data"`
}

// Len returns the number of points.
func (ts TimeSeries) Len() int {
	return len(ts.Data)
}

// SeriesKey names a charted parameter.
type SeriesKey string

const (
	SeriesROP                   SeriesKey = "rop"
	SeriesWOB                   SeriesKey = "wob"
	SeriesRPM                   SeriesKey = "rpm"
	SeriesTorque                SeriesKey = "torque"
	SeriesDepth                 SeriesKey = "depth"
	SeriesControlPercent        SeriesKey = "controlPercent"
	SeriesConnectionTime        SeriesKey = "connectionTime"
	SeriesPreConnectionTime     SeriesKey = "preConnectionTime"
	SeriesPostConnectionTime    SeriesKey = "postConnectionTime"
	SeriesPreConnectionControl  SeriesKey = "preConnectionControl"
	SeriesPreConnectionManual   SeriesKey = "preConnectionManual"
	SeriesPostConnectionControl SeriesKey = "postConnectionControl"
	SeriesPostConnectionManual  SeriesKey = "postConnectionManual"

	SeriesOpsLimitROP    SeriesKey = "opsLimitRop"
	SeriesOpsLimitWOB    SeriesKey = "opsLimitWob"
	SeriesOpsLimitTorque SeriesKey = "opsLimitTorque"
	SeriesOpsLimitRPM    SeriesKey = "opsLimitRpm"
	SeriesOpsLimitDiffP  SeriesKey = "opsLimitDiffP"
)

// SeriesKeys lists every series in display order.
var SeriesKeys = []SeriesKey{
	SeriesROP,
	SeriesWOB,
	SeriesRPM,
	SeriesTorque,
	SeriesDepth,
	SeriesControlPercent,
	SeriesConnectionTime,
	SeriesPreConnectionTime,
	SeriesPostConnectionTime,
	SeriesPreConnectionControl,
	SeriesPreConnectionManual,
	SeriesPostConnectionControl,
	SeriesPostConnectionManual,
	SeriesOpsLimitROP,
	SeriesOpsLimitWOB,
	SeriesOpsLimitTorque,
	SeriesOpsLimitRPM,
	SeriesOpsLimitDiffP,
}

// SeriesSet holds one TimeSeries per key.
type SeriesSet map[SeriesKey]TimeSeries

// StandLabel returns the chart label for a stand id.
func StandLabel(id int) string {
	return "Stand " + strconv.Itoa(id)
}
