package drilling

// Source column names of a drilling export.
const (
	ColWellID     = "WellId"
	ColStandIndex = "StandIndex"
	ColStandType  = "StandType"
	ColStartTime  = "StartTimeUTC"
	ColEndTime    = "EndTimeUTC"
	ColStartDepth = "StartDepth(ft)"
	ColEndDepth   = "EndDepth(ft)"
	ColROP        = "OnBottomRop(ft/h)"
	ColWOB        = "RotaryWobAvgInControl(1000 lbf)"
	ColRPM        = "RotaryRpmAvgInControl(c/min)"
	ColTorque     = "RotaryTorqueAvgInControl(1000 lbf)"
	ColFlowRate   = "RotaryFlowrateAvgInControl(bbl/d)"

	ColRotaryDuration = "RotaryDrillingDuration(s)"
	ColSlideDuration  = "SlideDrillingDuration(s)"

	ColConnection        = "ConnectionDuration(s)"
	ColPreConnection     = "PreConnectionDuration(s)"
	ColPostConnection    = "PostConnectionDuration(s)"
	ColPreInControl      = "PreConnectionDurationInControl(s)"
	ColPreOutControl     = "PreConnectionDurationOutControl(s)"
	ColPostInControl     = "PostConnectionDurationInControl(s)"
	ColPostOutControl    = "PostConnectionDurationOutControl(s)"
	ColDrillingInControl = "DrillingDurationInControl(s)"
	ColDrillingOutCtrl   = "DrillingDurationOutControl(s)"

	ColOpsLimitROP    = "OpsLimitsRopMaxChangeCount"
	ColOpsLimitWOB    = "OpsLimitsWobMaxChangeCount"
	ColOpsLimitTorque = "OpsLimitsTorqueMaxChangeCount"
	ColOpsLimitRPM    = "OpsLimitsRpmMaxChangeCount"
	ColOpsLimitDiffP  = "OpsLimitsDiffPMaxChangeCount"
)

// RequiredColumns must all be present for a row to become a stand.
var RequiredColumns = []string{ColStandIndex, ColStartDepth, ColEndDepth, ColROP}

const (
	// DefaultWellID is used when the first valid row has no well id.
	DefaultWellID = "Unknown Well"
	// DefaultStandType is used when the row has no stand type.
	DefaultStandType = "Drilling"
)
