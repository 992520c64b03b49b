package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rig-dashboard/backend/internal/dashboard"
	"github.com/rig-dashboard/backend/internal/ingest"
	"github.com/rig-dashboard/backend/internal/logger"
	"github.com/rig-dashboard/backend/internal/models"
	"github.com/rig-dashboard/backend/internal/standstore"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion
const MaxSessions = 10

// SessionMaxAge is how long to keep idle sessions before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoDataset       = errors.New("no dataset loaded")
	ErrTooManySessions = errors.New("too many active sessions")
)

// Manager owns the dashboard sessions and their datasets.
type Manager struct {
	sessions    map[string]*SessionState
	mu          sync.RWMutex
	pipeline    *ingest.Pipeline
	tempDir     string
	maxSessions int
	log         zerolog.Logger

	// closeStore releases a replaced or removed stand store. It is never called with mu held.
	closeStore func(*standstore.Store)
}

// SessionState holds the session metadata, its dataset and the DuckDB stand table.
type SessionState struct {
	Session      *models.DashboardSession
	Dataset      *models.Dataset
	Stands       *standstore.Store
	LastAccessed time.Time // Last time the session was accessed (for keep-alive)

	// Serializes ingests of one session.
	ingestMu sync.Mutex
}

// NewManager creates a session manager keeping stand tables under tempDir.
// Uses environment variable DUCKDB_TEMP_DIR when tempDir is empty, defaults to ./data/temp
func NewManager(tempDir string, pipeline *ingest.Pipeline) *Manager {
	if tempDir == "" {
		tempDir = os.Getenv("DUCKDB_TEMP_DIR")
	}
	if tempDir == "" {
		tempDir = "./data/temp"
	}
	os.MkdirAll(tempDir, 0755)
	if pipeline == nil {
		pipeline = ingest.NewPipeline(nil)
	}
	return &Manager{
		sessions:    make(map[string]*SessionState),
		pipeline:    pipeline,
		tempDir:     tempDir,
		maxSessions: MaxSessions,
		log:         logger.Get("session"),

		closeStore: func(st *standstore.Store) {
			st.Close()
		},
	}
}

// SetMaxSessions overrides the session limit. Values below 1 are ignored.
func (m *Manager) SetMaxSessions(n int) {
	if n < 1 {
		return
	}
	m.mu.Lock()
	m.maxSessions = n
	m.mu.Unlock()
}

// Create starts an empty session, evicting the least recently used idle session at capacity.
func (m *Manager) Create() (models.DashboardSession, error) {
	if err := m.cleanupOldSessionsIfNeeded(); err != nil {
		return models.DashboardSession{}, err
	}

	id := uuid.New().String()
	state := &SessionState{
		Session:      models.NewDashboardSession(id),
		LastAccessed: time.Now(),
	}

	m.mu.Lock()
	m.sessions[id] = state
	m.mu.Unlock()

	m.log.Info().Str("session", id).Msg("session created")
	return *state.Session, nil
}

// Ingest runs the file through the pipeline and replaces the session dataset.
// Only one ingest per session runs at a time; a concurrent call waits.
// On failure the previous dataset stays in place and the error is returned.
func (m *Manager) Ingest(ctx context.Context, id, fileID, fileName string, r io.Reader) (models.DashboardSession, error) {
	m.mu.RLock()
	state, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return models.DashboardSession{}, ErrSessionNotFound
	}

	state.ingestMu.Lock()
	defer state.ingestMu.Unlock()

	m.mu.Lock()
	prevStatus := state.Session.Status
	state.Session.Status = models.SessionStatusIngesting
	state.LastAccessed = time.Now()
	m.mu.Unlock()

	res, store, err := m.build(ctx, fileName, r)

	// The replaced store is closed after m.mu is released; Close waits for in-flight queries.
	var old *standstore.Store
	defer func() {
		m.closeStores(old)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, alive := m.sessions[id]; !alive {
		// Session expired or was deleted mid-ingest.
		old = store
		return models.DashboardSession{}, ErrSessionNotFound
	}

	if err != nil {
		state.Session.Status = prevStatus
		if state.Dataset == nil {
			state.Session.Status = models.SessionStatusError
		}
		state.Session.Error = err.Error()
		m.log.Warn().Err(err).Str("session", id).Str("file", fileName).Msg("ingest failed, keeping previous dataset")
		return *state.Session, err
	}

	old = state.Stands
	state.Dataset = res.Dataset
	state.Stands = store
	state.LastAccessed = time.Now()

	s := state.Session
	s.Status = models.SessionStatusReady
	s.FileID = fileID
	s.FileName = fileName
	s.WellID = res.Dataset.WellID
	s.StandCount = len(res.Dataset.Stands)
	s.SkippedRows = res.Dataset.SkippedRows
	s.ProcessingTimeMs = res.Duration.Milliseconds()
	s.ParserName = res.ParserName
	s.Error = ""
	s.StartTime, s.EndTime = timeBounds(res.Dataset.Stands)

	return *s, nil
}

// build parses the file and loads its stand table without touching any session state.
func (m *Manager) build(ctx context.Context, fileName string, r io.Reader) (res *ingest.Result, store *standstore.Store, err error) {
	// Recover from panics to prevent backend crash
	defer func() {
		if rec := recover(); rec != nil {
			m.log.Error().Interface("panic", rec).Str("file", fileName).Msg("ingest panicked")
			if store != nil {
				store.Close()
			}
			res, store, err = nil, nil, fmt.Errorf("ingest panicked: %v", rec)
		}
	}()

	res, err = m.pipeline.Process(fileName, r)
	if err != nil {
		return nil, nil, err
	}

	store, err = standstore.New(m.tempDir, uuid.New().String())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stand store: %w", err)
	}
	if err := store.Load(ctx, res.Dataset.Stands); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to load stands: %w", err)
	}
	return res, store, nil
}

func timeBounds(stands []models.Stand) (int64, int64) {
	var lo, hi int64
	for i := range stands {
		st := stands[i].StartTime
		if st == nil {
			continue
		}
		ms := st.UnixMilli()
		if lo == 0 || ms < lo {
			lo = ms
		}
		end := ms
		if et := stands[i].EndTime; et != nil {
			end = et.UnixMilli()
		}
		if end > hi {
			hi = end
		}
	}
	return lo, hi
}

// cleanupOldSessionsIfNeeded removes the least recently used sessions if at capacity.
// Sessions with an ingest in flight are never evicted.
func (m *Manager) cleanupOldSessionsIfNeeded() error {
	var detached []*standstore.Store
	defer func() {
		m.closeStores(detached...)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < m.maxSessions {
		return nil
	}

	candidates := make([]string, 0, len(m.sessions))
	for id, state := range m.sessions {
		if state.Session.Status != models.SessionStatusIngesting {
			candidates = append(candidates, id)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return m.sessions[candidates[i]].LastAccessed.Before(m.sessions[candidates[j]].LastAccessed)
	})

	toFree := len(m.sessions) - m.maxSessions + 1
	if len(candidates) < toFree {
		return ErrTooManySessions
	}
	for _, id := range candidates[:toFree] {
		detached = append(detached, m.removeLocked(id))
		m.log.Info().Str("session", id).Msg("evicted least recently used session")
	}
	return nil
}

// removeLocked drops the session and returns its stand store, which the
// caller closes once m.mu is released.
func (m *Manager) removeLocked(id string) *standstore.Store {
	state, ok := m.sessions[id]
	if !ok {
		return nil
	}
	delete(m.sessions, id)
	return state.Stands
}

func (m *Manager) closeStores(stores ...*standstore.Store) {
	for _, st := range stores {
		if st != nil {
			m.closeStore(st)
		}
	}
}

// CleanupOldSessions removes sessions idle for longer than maxAge,
// but keeps sessions that have been accessed within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	var detached []*standstore.Store
	defer func() {
		m.closeStores(detached...)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	removed := 0
	for id, state := range m.sessions {
		if state.Session.Status == models.SessionStatusIngesting {
			continue
		}
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			idle := now.Sub(state.LastAccessed).Round(time.Second)
			detached = append(detached, m.removeLocked(id))
			removed++
			m.log.Info().Str("session", id).Dur("idle", idle).Msg("cleaned up aged session")
		}
	}
	return removed
}

// RunCleanup calls CleanupOldSessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupOldSessions(maxAge)
		}
	}
}

// Delete removes a session and its stand table.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	if _, ok := m.sessions[id]; !ok {
		m.mu.Unlock()
		return false
	}
	store := m.removeLocked(id)
	m.mu.Unlock()

	m.closeStores(store)
	return true
}

// Close removes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	detached := make([]*standstore.Store, 0, len(m.sessions))
	for id := range m.sessions {
		detached = append(detached, m.removeLocked(id))
	}
	m.mu.Unlock()

	m.closeStores(detached...)
}

// GetSession returns a snapshot of the session metadata.
func (m *Manager) GetSession(id string) (models.DashboardSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return models.DashboardSession{}, false
	}
	return *state.Session, true
}

// TouchSession updates the LastAccessed timestamp for a session.
// This should be called whenever a session is actively being used
// to prevent it from being cleaned up.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// Dataset returns the current dataset of a session. The dataset is never
// mutated after publication, so callers may read it without further locking.
func (m *Manager) Dataset(id string) (*models.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if state.Dataset == nil {
		return nil, ErrNoDataset
	}
	return state.Dataset, nil
}

// SelectStand makes standID the active stand of the session.
func (m *Manager) SelectStand(id string, standID int) (*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if state.Dataset == nil {
		return nil, ErrNoDataset
	}
	next, err := dashboard.SelectStand(state.Dataset, standID)
	if err != nil {
		return nil, err
	}
	state.Dataset = next
	state.LastAccessed = time.Now()
	return next, nil
}

// storeFor returns the dataset and stand table under the read lock.
func (m *Manager) storeFor(id string) (*models.Dataset, *standstore.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	if state.Dataset == nil || state.Stands == nil {
		return nil, nil, ErrNoDataset
	}
	return state.Dataset, state.Stands, nil
}

// QueryStands returns one sorted, filtered page of the session's stands and the total count.
func (m *Manager) QueryStands(ctx context.Context, id string, q standstore.StandQuery) ([]models.Stand, int, error) {
	ds, store, err := m.storeFor(id)
	if err != nil {
		return nil, 0, err
	}

	ids, total, err := store.QueryStands(ctx, q)
	if errors.Is(err, standstore.ErrClosed) {
		// The dataset was replaced while the query waited; use the new one.
		if ds, store, err = m.storeFor(id); err != nil {
			return nil, 0, err
		}
		ids, total, err = store.QueryStands(ctx, q)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			m.log.Debug().Str("session", id).Msg("stand query cancelled")
		}
		return nil, 0, err
	}

	stands := make([]models.Stand, 0, len(ids))
	for _, sid := range ids {
		if s, ok := ds.Find(sid); ok {
			stands = append(stands, *s)
		}
	}
	return stands, total, nil
}

// ParameterRanges returns the per-parameter min/max of the session's stands.
func (m *Manager) ParameterRanges(ctx context.Context, id string) (map[string]standstore.Range, error) {
	_, store, err := m.storeFor(id)
	if err != nil {
		return nil, err
	}
	return store.ParameterRanges(ctx)
}

// Days returns the per-day summaries of the session's stands.
func (m *Manager) Days(ctx context.Context, id string) ([]standstore.DaySummary, error) {
	_, store, err := m.storeFor(id)
	if err != nil {
		return nil, err
	}
	return store.Days(ctx)
}
