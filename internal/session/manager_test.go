package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rig-dashboard/backend/internal/dashboard"
	"github.com/rig-dashboard/backend/internal/drilling"
	"github.com/rig-dashboard/backend/internal/models"
	"github.com/rig-dashboard/backend/internal/parser"
	"github.com/rig-dashboard/backend/internal/standstore"
)

const header = "WellId\tStandIndex\tStartTimeUTC\tStartDepth(ft)\tEndDepth(ft)\tOnBottomRop(ft/h)\n"

const exportA = header +
	"W-1\t1\t2024-03-01 02:00:00\t6500\t6530\t120\n" +
	"W-1\t2\t2024-03-01 14:00:00\t6530\t6560\t90\n"

const exportB = header +
	"W-2\t7\t2024-03-05 02:00:00\t7000\t7090\t60\n"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(t.TempDir(), nil)
	t.Cleanup(m.Close)
	return m
}

func ingestText(t *testing.T, m *Manager, id, content string) models.DashboardSession {
	t.Helper()
	s, err := m.Ingest(context.Background(), id, "file-1", "export.txt", strings.NewReader(content))
	require.NoError(t, err)
	return s
}

func TestSessionManager(t *testing.T) {
	m := newTestManager(t)

	sess, err := m.Create()
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusEmpty, sess.Status)

	_, err = m.Dataset(sess.ID)
	assert.ErrorIs(t, err, ErrNoDataset)

	got := ingestText(t, m, sess.ID, exportA)
	assert.Equal(t, models.SessionStatusReady, got.Status)
	assert.Equal(t, "W-1", got.WellID)
	assert.Equal(t, 2, got.StandCount)
	assert.Equal(t, "delimited_text", got.ParserName)
	assert.Equal(t, time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC).UnixMilli(), got.StartTime)

	ds, err := m.Dataset(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Active().ID)

	stands, total, err := m.QueryStands(context.Background(), sess.ID, standstore.StandQuery{SortColumn: "rop", SortDirection: "desc"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, stands, 2)
	assert.Equal(t, 1, stands[0].ID)

	days, err := m.Days(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-03-01", days[0].Date)

	ranges, err := m.ParameterRanges(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, standstore.Range{Min: 90, Max: 120}, ranges["rop"])
}

func TestIngest_ReplacesDataset(t *testing.T) {
	m := newTestManager(t)
	sess, _ := m.Create()

	ingestText(t, m, sess.ID, exportA)
	before, _ := m.Dataset(sess.ID)

	got := ingestText(t, m, sess.ID, exportB)
	assert.Equal(t, "W-2", got.WellID)

	after, err := m.Dataset(sess.ID)
	require.NoError(t, err)
	require.Len(t, after.Stands, 1)
	assert.Equal(t, 7, after.Stands[0].ID)

	// Readers holding the old dataset still see it intact.
	assert.Len(t, before.Stands, 2)

	stands, total, err := m.QueryStands(context.Background(), sess.ID, standstore.StandQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 7, stands[0].ID)
}

func TestIngest_FailureKeepsPreviousState(t *testing.T) {
	m := newTestManager(t)
	sess, _ := m.Create()
	ingestText(t, m, sess.ID, exportA)
	before, _ := m.Dataset(sess.ID)

	tests := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			"no valid rows",
			"export.txt",
			"StandIndex\tStartDepth(ft)\n1\t2\n",
			func(t *testing.T, err error) { assert.ErrorIs(t, err, drilling.ErrNoValidData) },
		},
		{
			"corrupt workbook",
			"export.xlsx",
			"PK\x03\x04nope",
			func(t *testing.T, err error) {
				var de *parser.DecodeError
				assert.True(t, errors.As(err, &de))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Ingest(context.Background(), sess.ID, "file-2", tt.file, strings.NewReader(tt.content))
			require.Error(t, err)
			tt.check(t, err)

			assert.Equal(t, models.SessionStatusReady, got.Status)
			assert.NotEmpty(t, got.Error)
			assert.Equal(t, "file-1", got.FileID)

			after, err := m.Dataset(sess.ID)
			require.NoError(t, err)
			assert.Same(t, before, after)

			_, total, err := m.QueryStands(context.Background(), sess.ID, standstore.StandQuery{})
			require.NoError(t, err)
			assert.Equal(t, 2, total)
		})
	}
}

func TestIngest_FirstFailureMarksError(t *testing.T) {
	m := newTestManager(t)
	sess, _ := m.Create()

	got, err := m.Ingest(context.Background(), sess.ID, "f", "export.txt", strings.NewReader("a\tb\n"))
	require.Error(t, err)
	assert.Equal(t, models.SessionStatusError, got.Status)
	assert.Equal(t, "No valid drilling data found", got.Error)

	_, err = m.Ingest(context.Background(), "missing", "f", "export.txt", strings.NewReader(exportA))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestIngest_ConcurrentCallsSerialize(t *testing.T) {
	m := newTestManager(t)
	sess, _ := m.Create()

	var wg sync.WaitGroup
	for _, content := range []string{exportA, exportB, exportA, exportB} {
		wg.Add(1)
		go func(c string) {
			defer wg.Done()
			_, err := m.Ingest(context.Background(), sess.ID, "f", "export.txt", strings.NewReader(c))
			assert.NoError(t, err)
		}(content)
	}
	wg.Wait()

	ds, err := m.Dataset(sess.ID)
	require.NoError(t, err)
	s, _ := m.GetSession(sess.ID)
	assert.Equal(t, len(ds.Stands), s.StandCount)
	assert.Equal(t, ds.WellID, s.WellID)
}

func TestSelectStand(t *testing.T) {
	m := newTestManager(t)
	sess, _ := m.Create()
	ingestText(t, m, sess.ID, exportA)

	ds, err := m.SelectStand(sess.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Active().ID)

	current, _ := m.Dataset(sess.ID)
	assert.Equal(t, 1, current.Active().ID)

	_, err = m.SelectStand(sess.ID, 99)
	assert.ErrorIs(t, err, dashboard.ErrStandNotFound)

	_, err = m.SelectStand("missing", 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCleanupOldSessions(t *testing.T) {
	m := newTestManager(t)
	idle, _ := m.Create()
	fresh, _ := m.Create()

	m.mu.Lock()
	m.sessions[idle.ID].LastAccessed = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	removed := m.CleanupOldSessions(SessionMaxAge)
	assert.Equal(t, 1, removed)

	_, ok := m.GetSession(idle.ID)
	assert.False(t, ok)
	_, ok = m.GetSession(fresh.ID)
	assert.True(t, ok)
}

func TestTouchSession(t *testing.T) {
	m := newTestManager(t)
	sess, _ := m.Create()

	m.mu.Lock()
	m.sessions[sess.ID].LastAccessed = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	assert.True(t, m.TouchSession(sess.ID))
	assert.Equal(t, 0, m.CleanupOldSessions(SessionMaxAge))
	assert.False(t, m.TouchSession("missing"))
}

func TestMaxSessionsEvictsLeastRecentlyUsed(t *testing.T) {
	m := newTestManager(t)
	m.SetMaxSessions(2)

	first, _ := m.Create()
	second, _ := m.Create()

	m.mu.Lock()
	m.sessions[first.ID].LastAccessed = time.Now().Add(-time.Minute)
	m.mu.Unlock()
	m.TouchSession(second.ID)

	third, err := m.Create()
	require.NoError(t, err)

	_, ok := m.GetSession(first.ID)
	assert.False(t, ok)
	_, ok = m.GetSession(second.ID)
	assert.True(t, ok)
	_, ok = m.GetSession(third.ID)
	assert.True(t, ok)
}

func TestStoresCloseOutsideManagerLock(t *testing.T) {
	m := newTestManager(t)

	var mu sync.Mutex
	closed := 0
	m.closeStore = func(st *standstore.Store) {
		locked := !m.mu.TryLock()
		if !locked {
			m.mu.Unlock()
		}
		assert.False(t, locked, "stand store closed while the manager lock is held")
		mu.Lock()
		closed++
		mu.Unlock()
		st.Close()
	}

	replaced, _ := m.Create()
	ingestText(t, m, replaced.ID, exportA)
	ingestText(t, m, replaced.ID, exportB)

	deleted, _ := m.Create()
	ingestText(t, m, deleted.ID, exportA)
	require.True(t, m.Delete(deleted.ID))

	aged, _ := m.Create()
	ingestText(t, m, aged.ID, exportA)
	m.mu.Lock()
	m.sessions[aged.ID].LastAccessed = time.Now().Add(-time.Hour)
	m.mu.Unlock()
	require.Equal(t, 1, m.CleanupOldSessions(SessionMaxAge))

	m.Close()

	mu.Lock()
	defer mu.Unlock()
	// replaced (old and new), deleted, aged
	assert.Equal(t, 4, closed)
}

func TestRunCleanupStopsOnCancel(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.RunCleanup(ctx, time.Millisecond, SessionMaxAge)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
