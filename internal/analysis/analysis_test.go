package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rig-dashboard/backend/internal/models"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func sampleStands() []models.Stand {
	return []models.Stand{
		{
			ID: 1, StartDepth: 6500, EndDepth: 6530, DistanceDrilled: 30, Depth: 6530,
			ROP: 120, WOB: 18, ControlDrillingPercent: 90,
			ConnectionTime: 600, PreConnectionTime: 240, PostConnectionTime: 120,
			PreConnectionInControl: 180, PreConnectionOutControl: 60,
			PostConnectionInControl: 60, PostConnectionOutControl: 60,
			OpsLimitRopMaxCount: 2, OpsLimitWobMaxCount: 1,
			StartTime: at("2024-03-01T02:00:00Z"),
		},
		{
			ID: 2, StartDepth: 6530, EndDepth: 6620, DistanceDrilled: 90, Depth: 6620,
			ROP: 40, ControlDrillingPercent: 50,
			ConnectionTime: 1200,
			OpsLimitTorqueMaxCount: 3,
			StartTime: at("2024-03-01T14:30:00Z"),
		},
		{
			ID: 3, StartDepth: 6620, EndDepth: 6640, DistanceDrilled: 20, Depth: 6640,
			ROP: 0, ControlDrillingPercent: 0,
			IsActive: true,
		},
	}
}

func TestZeroDenominators(t *testing.T) {
	assert.Equal(t, 0.0, ControlPercent(0, 0))
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Mean([]float64{math.NaN()}))
	assert.Equal(t, 0.0, WeightedControlPercent(nil))
	assert.Equal(t, 0.0, WeightedControlPercent([]models.Stand{{ControlDrillingPercent: 80}}))
	assert.Equal(t, ConnectionAverages{}, AverageConnections(nil))

	m := ComputeDrillingMetrics(nil)
	assert.Equal(t, DrillingMetrics{}, m)

	kpi := ComputeConnectionKPI(nil, 0)
	assert.Equal(t, 0, kpi.PreControlPercent)
	assert.Equal(t, 100, kpi.Efficiency)
}

func TestAverageConnections_SkipsUnparsedFields(t *testing.T) {
	stands := []models.Stand{
		{ID: 1, ConnectionTime: 600, PostConnectionTime: 100},
		{ID: 2, Unparsed: models.FieldConnectionTime, PostConnectionTime: 300},
	}

	avg := AverageConnections(stands)
	assert.Equal(t, 600.0, avg.ConnectionTime)
	assert.Equal(t, 200.0, avg.PostConnectionTime)

	stands[0].Unparsed = models.FieldConnectionTime
	assert.Equal(t, 0.0, AverageConnections(stands).ConnectionTime)
}

func TestControlPercent(t *testing.T) {
	assert.Equal(t, 75.0, ControlPercent(180, 60))
	assert.Equal(t, 100.0, ControlPercent(5, 0))
	assert.Equal(t, 0.0, ControlPercent(0, 5))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 3.0, Round(2.5))
	assert.Equal(t, -2.0, Round(-2.5))
	assert.Equal(t, 0.0, Round(math.Inf(1)))
}

func TestMean_SkipsNaN(t *testing.T) {
	assert.Equal(t, 2.0, Mean([]float64{1, math.NaN(), 3}))
}

func TestWeightedControlPercent(t *testing.T) {
	stands := sampleStands()
	// (90*30 + 50*90 + 0*20) / 140
	assert.InDelta(t, 7200.0/140.0, WeightedControlPercent(stands), 1e-9)
}

func TestOpsLimitTotals(t *testing.T) {
	o := OpsLimitTotals(sampleStands())
	assert.Equal(t, OpsLimits{ROP: 2, WOB: 1, Torque: 3, Total: 6}, o)
}

func TestComputeDrillingMetrics(t *testing.T) {
	m := ComputeDrillingMetrics(sampleStands())

	assert.Equal(t, 140.0, m.TotalDistanceDrilled)
	assert.InDelta(t, 7200.0/140.0, m.TotalControlDrillingPercent, 1e-9)
	assert.InDelta(t, 72.0, m.DrillInControlDistance, 1e-9)
	assert.InDelta(t, 75.0, m.PreConnectionControlPercent, 1e-9)
	assert.InDelta(t, 50.0, m.PostConnectionControlPercent, 1e-9)
	assert.InDelta(t, 140*FeetToMeters, m.TotalMeters, 1e-9)
	assert.InDelta(t, 72*FeetToMeters, m.DrillInControlMeters, 1e-9)
}

func TestComputeConnectionKPI(t *testing.T) {
	kpi := ComputeConnectionKPI(sampleStands(), 900)

	assert.InDelta(t, 600.0, kpi.Averages.ConnectionTime, 1e-9)
	assert.Equal(t, 75, kpi.PreControlPercent)
	assert.Equal(t, 50, kpi.PostControlPercent)
	// (60+20) / (60+20+20+20)
	assert.Equal(t, 67, kpi.TotalControlPercent)
	// 100 - 600/900*100 = 33.3
	assert.Equal(t, 33, kpi.Efficiency)
	assert.Equal(t, "low", kpi.PostClass)
	assert.Equal(t, "medium", kpi.TotalClass)
}

func TestBuildSeries_Alignment(t *testing.T) {
	stands := sampleStands()
	set := BuildSeries(stands)

	require.Len(t, set, len(models.SeriesKeys))
	for key, ts := range set {
		require.Len(t, ts.Data, len(stands), key)
		assert.Equal(t, []string{"Stand 1", "Stand 2", "Stand 3"}, ts.Labels, key)
	}
	assert.Equal(t, []float64{120, 40, 0}, set[models.SeriesROP].Data)
	assert.Equal(t, []float64{6530, 6620, 6640}, set[models.SeriesDepth].Data)
	assert.Equal(t, []float64{90, 50, 0}, set[models.SeriesControlPercent].Data)
	assert.Equal(t, []float64{180, 0, 0}, set[models.SeriesPreConnectionControl].Data)
	assert.Equal(t, []float64{0, 3, 0}, set[models.SeriesOpsLimitTorque].Data)

	empty := BuildSeries(nil)
	assert.Len(t, empty[models.SeriesROP].Labels, 0)
	assert.NotNil(t, empty[models.SeriesROP].Data)
}

func TestSeriesFor(t *testing.T) {
	ts, ok := SeriesFor(sampleStands(), models.SeriesWOB)
	require.True(t, ok)
	assert.Equal(t, []float64{18, 0, 0}, ts.Data)

	_, ok = SeriesFor(nil, "nope")
	assert.False(t, ok)
}

func TestFilterByTimeRange(t *testing.T) {
	stands := sampleStands()

	tests := []struct {
		name  string
		r     TimeRange
		wantN []int
	}{
		{"same day inclusive end", TimeRange{Start: *at("2024-03-01T00:00:00Z"), End: *at("2024-03-01T00:00:00Z")}, []int{1, 2, 3}},
		{"before data keeps untimed", TimeRange{Start: *at("2024-02-01T00:00:00Z"), End: *at("2024-02-28T00:00:00Z")}, []int{3}},
		{"open range", TimeRange{}, []int{1, 2, 3}},
		{"start after data", TimeRange{Start: *at("2024-03-02T00:00:00Z")}, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByTimeRange(stands, tt.r)
			ids := make([]int, len(got))
			for i := range got {
				ids[i] = got[i].ID
			}
			assert.Equal(t, tt.wantN, ids)
		})
	}
}

func TestPresetRange(t *testing.T) {
	now := *at("2024-03-10T08:00:00Z")
	stands := sampleStands()

	r, err := PresetRange(Preset12h, now, stands)
	require.NoError(t, err)
	assert.Equal(t, *at("2024-03-09T00:00:00Z"), r.Start)
	assert.Equal(t, *at("2024-03-10T00:00:00Z"), r.End)

	r, err = PresetRange(Preset7d, now, stands)
	require.NoError(t, err)
	assert.Equal(t, *at("2024-03-03T00:00:00Z"), r.Start)

	r, err = PresetRange(PresetAll, now, stands)
	require.NoError(t, err)
	assert.Equal(t, *at("2024-03-01T00:00:00Z"), r.Start)

	r, err = PresetRange(PresetAll, now, []models.Stand{{ID: 1}})
	require.NoError(t, err)
	assert.Equal(t, *at("2024-02-09T00:00:00Z"), r.Start)

	_, err = PresetRange("48h", now, stands)
	assert.Error(t, err)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("2024-03-01", "2024-03-02")
	require.NoError(t, err)
	assert.True(t, r.Contains(*at("2024-03-02T23:59:59Z")))
	assert.False(t, r.Contains(*at("2024-03-03T00:00:00Z")))

	_, err = ParseRange("2024-03-05", "2024-03-01")
	assert.Error(t, err)
	_, err = ParseRange("03/01/2024", "")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	stands := sampleStands()
	day := *at("2024-03-01T00:00:00Z")

	all, err := Summarize(stands, PeriodAll, day)
	require.NoError(t, err)
	assert.Equal(t, 3, all.StandsCount)
	assert.Equal(t, 140.0, all.TotalFootage)
	assert.InDelta(t, 3.0, all.PreConnectionControl, 1e-9)
	assert.InDelta(t, 1.0, all.PostConnectionManual, 1e-9)

	full, err := Summarize(stands, Period24h, day)
	require.NoError(t, err)
	assert.Equal(t, 2, full.StandsCount, "untimed stands are excluded from windows")

	half, err := Summarize(stands, Period12h, day)
	require.NoError(t, err)
	assert.Equal(t, 2, half.StandsCount)
	assert.Equal(t, 120.0, half.TotalFootage)
	assert.Equal(t, 3, half.OpsLimits.Torque)
	assert.True(t, at("2024-02-29T12:00:00Z").Equal(half.Window.Start), half.Window.Start)

	_, err = Summarize(stands, "3h", day)
	assert.Error(t, err)
}

func TestSummarize_WindowsReachIntoPreviousDay(t *testing.T) {
	stands := []models.Stand{
		{ID: 1, DistanceDrilled: 10, StartTime: at("2024-02-29T20:00:00Z")},
		{ID: 2, DistanceDrilled: 20, StartTime: at("2024-03-01T08:00:00Z")},
		{ID: 3, DistanceDrilled: 30, StartTime: at("2024-03-01T15:00:00Z")},
		{ID: 4, DistanceDrilled: 40, StartTime: at("2024-02-29T11:00:00Z")},
		{ID: 5, DistanceDrilled: 50, StartTime: at("2024-03-02T00:00:00Z")},
	}
	day := *at("2024-03-01T00:00:00Z")

	tests := []struct {
		period  Period
		count   int
		footage float64
	}{
		{Period24h, 2, 50},
		{Period12h, 3, 60},
		{Period6h, 3, 60},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			sum, err := Summarize(stands, tt.period, day)
			require.NoError(t, err)
			assert.Equal(t, tt.count, sum.StandsCount)
			assert.Equal(t, tt.footage, sum.TotalFootage)
			assert.True(t, at("2024-03-01T23:59:59.999Z").Equal(sum.Window.End), sum.Window.End)
		})
	}
}

func TestBreakdown(t *testing.T) {
	b := Breakdown(sampleStands(), *at("2024-03-01T09:00:00Z"))

	assert.Equal(t, "2024-03-01", b.Date)
	assert.Equal(t, 2, b.StandsCount)
	assert.Equal(t, 120.0, b.TotalFootage)

	require.Len(t, b.Breakdowns["6h"], 4)
	require.Len(t, b.Breakdowns["12h"], 2)
	require.Len(t, b.Breakdowns["24h"], 1)

	six := b.Breakdowns["6h"]
	assert.Equal(t, "00:00 - 06:00", six[0].Label)
	assert.Equal(t, 1, six[0].StandsCount)
	assert.Equal(t, 75.0, six[0].PreConnControlPercent)
	assert.Equal(t, 0, six[1].StandsCount)
	assert.Equal(t, 1, six[2].StandsCount)
	assert.Equal(t, 0.0, six[1].AvgControlPercent)

	day := b.Breakdowns["24h"][0]
	assert.Equal(t, 2, day.StandsCount)
	assert.Equal(t, "00:00 - 00:00", day.Label)
}

func TestIndicators(t *testing.T) {
	th := DefaultThresholds()
	stands := sampleStands()

	types := func(in []Indicator) []string {
		out := make([]string, len(in))
		for i := range in {
			out[i] = in[i].Type
		}
		return out
	}

	assert.Equal(t, []string{"high-performance", "high-wob", "high-control"}, types(th.Indicators(&stands[0])))
	assert.Equal(t, []string{"low-performance"}, types(th.Indicators(&stands[1])))
	assert.Empty(t, th.Indicators(&stands[2]))

	long := models.Stand{DistanceDrilled: 95, ControlDrillingPercent: 30}
	assert.Equal(t, []string{"long-section", "low-control"}, types(th.Indicators(&long)))
}

func TestRatingsAndEfficiency(t *testing.T) {
	assert.Equal(t, "Excellent", ControlRating(80))
	assert.Equal(t, "Good", ControlRating(79.9))
	assert.Equal(t, "Fair", ControlRating(40))
	assert.Equal(t, "Poor", ControlRating(0))

	th := DefaultThresholds()
	assert.InDelta(t, 80.0, th.Efficiency(120), 1e-9)
	assert.Equal(t, 100.0, th.Efficiency(300))
	assert.Equal(t, 0.0, th.Efficiency(-5))

	d := th.Detail(sampleStands()[0])
	assert.Equal(t, "Excellent", d.ControlRating)
	assert.InDelta(t, 240.0/360.0*100, d.TotalConnectionControl, 1e-9)
}

func TestSelectStandsAndCompare(t *testing.T) {
	stands := sampleStands()

	ids, err := SelectStands(stands, SelectLatest5)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, ids)

	ids, err = SelectStands(stands, SelectBest5ROP)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)

	_, err = SelectStands(stands, SelectCustom)
	assert.Error(t, err)

	c := Compare(stands, []int{2, 1, 99})
	assert.Equal(t, 2, c.StandCount)
	assert.Equal(t, []int{1, 2}, c.StandIDs)
	assert.InDelta(t, 80.0, c.AvgROP, 1e-9)
	assert.InDelta(t, 75.0, c.AvgPreConnectionControl, 1e-9)
	assert.Equal(t, 120.0, c.TotalDistance)
	assert.Equal(t, []string{"Stand 1", "Stand 2"}, c.ROP.Labels)

	empty := Compare(stands, nil)
	assert.Equal(t, 0, empty.StandCount)
	assert.Equal(t, 0.0, empty.AvgROP)
}
