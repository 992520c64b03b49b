package standstore

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rig-dashboard/backend/internal/analysis"
	"github.com/rig-dashboard/backend/internal/models"
)

// createTestStore creates a temporary Store loaded with stands.
func createTestStore(t *testing.T, stands []models.Stand) *Store {
	t.Helper()
	store, err := New(t.TempDir(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Load(context.Background(), stands))
	return store
}

func ts(day, hour int) *time.Time {
	t := time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func testStands() []models.Stand {
	return []models.Stand{
		{ID: 1, Depth: 6530, DistanceDrilled: 30, ROP: 120, WOB: 14, ControlDrillingPercent: 80, OpsLimitRopMaxCount: 1, StartTime: ts(1, 3)},
		{ID: 2, Depth: 6560, DistanceDrilled: 30, ROP: 90, WOB: 19, ControlDrillingPercent: 40, StartTime: ts(1, 15)},
		{ID: 3, Depth: 6620, DistanceDrilled: 60, ROP: 150, WOB: 11, ControlDrillingPercent: 100, OpsLimitTorqueMaxCount: 2, StartTime: ts(2, 1)},
		{ID: 4, Depth: 6630, DistanceDrilled: 10, ROP: 30, WOB: 12},
	}
}

func TestNew(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		dir := t.TempDir()
		store, err := New(dir, "abc")
		require.NoError(t, err)

		path := filepath.Join(dir, "dataset_abc.duckdb")
		_, err = os.Stat(path)
		assert.NoError(t, err)

		require.NoError(t, store.Close())
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err), "file should be removed on close")
	})
}

func TestStore_Load(t *testing.T) {
	store := createTestStore(t, testStands())
	assert.Equal(t, 4, store.Len())
}

func TestStore_QueryStands(t *testing.T) {
	store := createTestStore(t, testStands())
	ctx := context.Background()

	tests := []struct {
		name    string
		query   StandQuery
		wantIDs []int
		total   int
	}{
		{"default order", StandQuery{}, []int{1, 2, 3, 4}, 4},
		{"rop desc", StandQuery{SortColumn: "rop", SortDirection: "desc"}, []int{3, 1, 2, 4}, 4},
		{"wob asc", StandQuery{SortColumn: "wob"}, []int{3, 4, 1, 2}, 4},
		{"second page", StandQuery{Page: 2, PageSize: 3}, []int{4}, 4},
		{"past the end", StandQuery{Page: 5, PageSize: 3}, []int{}, 4},
		{"offset would overflow", StandQuery{Page: math.MaxInt, PageSize: MaxPageSize}, []int{}, 4},
		{
			"day filter keeps untimed",
			StandQuery{Range: analysis.TimeRange{Start: *ts(2, 0), End: *ts(2, 0)}},
			[]int{3, 4},
			2,
		},
		{"start time nulls last", StandQuery{SortColumn: "startTime", SortDirection: "desc"}, []int{3, 2, 1, 4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, total, err := store.QueryStands(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStore_QueryStands_InvalidSort(t *testing.T) {
	store := createTestStore(t, testStands())

	_, _, err := store.QueryStands(context.Background(), StandQuery{SortColumn: "id; DROP TABLE stands"})
	assert.Error(t, err)
	assert.False(t, ValidSort("nope"))
	assert.True(t, ValidSort("controlPercent"))
	assert.True(t, ValidSort(""))
}

func TestStore_QueryStands_CancelledContext(t *testing.T) {
	store := createTestStore(t, testStands())

	// Exhaust the semaphore so acquire has to wait on the context.
	for i := 0; i < cap(store.querySem); i++ {
		store.querySem <- struct{}{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := store.QueryStands(ctx, StandQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_ParameterRanges(t *testing.T) {
	store := createTestStore(t, testStands())

	ranges, err := store.ParameterRanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Range{Min: 30, Max: 150}, ranges["rop"])
	assert.Equal(t, Range{Min: 11, Max: 19}, ranges["wob"])
	assert.Equal(t, Range{Min: 6530, Max: 6630}, ranges["depth"])

	empty := createTestStore(t, nil)
	ranges, err = empty.ParameterRanges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Range{}, ranges["rop"])
}

func TestStore_Days(t *testing.T) {
	store := createTestStore(t, testStands())

	days, err := store.Days(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "2024-03-01", days[0].Date)
	assert.Equal(t, 2, days[0].Stands)
	assert.Equal(t, 60.0, days[0].Footage)
	assert.InDelta(t, 60.0, days[0].AvgControlPercent, 1e-9)
	assert.Equal(t, 1, days[0].OpsLimits)

	assert.Equal(t, "2024-03-02", days[1].Date)
	assert.Equal(t, 1, days[1].Stands)
	assert.Equal(t, 2, days[1].OpsLimits)
}
