// Package standstore keeps a dataset's stand table in a temporary DuckDB file
// for sorted, paginated and aggregated queries.
package standstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog"

	"github.com/rig-dashboard/backend/internal/analysis"
	"github.com/rig-dashboard/backend/internal/logger"
	"github.com/rig-dashboard/backend/internal/models"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// ErrClosed is returned by queries on a store that has been closed.
var ErrClosed = errors.New("stand store closed")

// Store is a DuckDB-backed stand table. The backing file is removed on Close.
type Store struct {
	db     *sql.DB
	dbPath string
	count  int
	log    zerolog.Logger

	// Limits concurrent queries against one dataset.
	querySem chan struct{}

	// Queries hold the read lock; Close waits for them.
	mu     sync.RWMutex
	closed bool
}

// New creates an empty store file for the dataset id inside tempDir.
func New(tempDir, id string) (*Store, error) {
	return NewAtPath(filepath.Join(tempDir, fmt.Sprintf("dataset_%s.duckdb", id)))
}

// NewAtPath creates an empty store at dbPath.
func NewAtPath(dbPath string) (*Store, error) {
	log := logger.Get("standstore")

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE stands (
			id              INTEGER PRIMARY KEY,
			start_ms        BIGINT,
			depth           DOUBLE NOT NULL,
			distance        DOUBLE NOT NULL,
			rop             DOUBLE NOT NULL,
			wob             DOUBLE NOT NULL,
			rpm             DOUBLE NOT NULL,
			torque          DOUBLE NOT NULL,
			flow_rate       DOUBLE NOT NULL,
			control_pct     DOUBLE NOT NULL,
			connection_time DOUBLE NOT NULL,
			ops_total       INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("stand store created")
	return &Store{
		db:       db,
		dbPath:   dbPath,
		log:      log,
		querySem: make(chan struct{}, 3),
	}, nil
}

// Load appends the stands with the native Appender API.
func (s *Store) Load(ctx context.Context, stands []models.Stand) error {
	start := time.Now()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "stands")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i := range stands {
			st := &stands[i]
			var startMs driver.Value
			if st.StartTime != nil {
				startMs = st.StartTime.UnixMilli()
			}
			ops := st.OpsLimitRopMaxCount + st.OpsLimitWobMaxCount + st.OpsLimitTorqueMaxCount +
				st.OpsLimitRpmMaxCount + st.OpsLimitDiffPMaxCount

			err := appender.AppendRow(
				int32(st.ID),
				startMs,
				st.Depth,
				st.DistanceDrilled,
				st.ROP,
				st.WOB,
				st.RPM,
				st.Torque,
				st.FlowRate,
				float64(st.ControlDrillingPercent),
				st.ConnectionTime,
				int32(ops),
			)
			if err != nil {
				return fmt.Errorf("failed to append stand %d: %w", st.ID, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	s.count += len(stands)
	s.log.Debug().Int("stands", len(stands)).Dur("elapsed", time.Since(start)).Msg("stands loaded")
	return nil
}

// Len returns the number of stored stands.
func (s *Store) Len() int {
	return s.count
}

// sortColumns maps API sort keys to table columns.
var sortColumns = map[string]string{
	"id":              "id",
	"startTime":       "start_ms",
	"depth":           "depth",
	"distanceDrilled": "distance",
	"rop":             "rop",
	"wob":             "wob",
	"rpm":             "rpm",
	"torque":          "torque",
	"flowRate":        "flow_rate",
	"controlPercent":  "control_pct",
	"connectionTime":  "connection_time",
	"opsLimits":       "ops_total",
}

// StandQuery defines sorting, time filtering and paging of a stand listing.
type StandQuery struct {
	SortColumn    string // key of sortColumns, default "id"
	SortDirection string // "asc" or "desc"
	Range         analysis.TimeRange
	Page          int // 1-based
	PageSize      int
}

// ValidSort reports whether key can be used as StandQuery.SortColumn.
func ValidSort(key string) bool {
	_, ok := sortColumns[key]
	return key == "" || ok
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	select {
	case s.querySem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		<-s.querySem
		return nil, ErrClosed
	}
	return func() {
		s.mu.RUnlock()
		<-s.querySem
	}, nil
}

func buildWhereClause(r analysis.TimeRange) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if !r.Start.IsZero() {
		conds = append(conds, "(start_ms IS NULL OR start_ms >= ?)")
		args = append(args, analysis.StartOfDay(r.Start).UnixMilli())
	}
	if !r.End.IsZero() {
		conds = append(conds, "(start_ms IS NULL OR start_ms <= ?)")
		args = append(args, analysis.EndOfDay(r.End).UnixMilli())
	}
	return strings.Join(conds, " AND "), args
}

// QueryStands returns the ids of one page of stands and the total matching count.
// Stands without a start time always match the time filter.
func (s *Store) QueryStands(ctx context.Context, q StandQuery) ([]int, int, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	sortCol := "id"
	if col, ok := sortColumns[q.SortColumn]; ok {
		sortCol = col
	} else if q.SortColumn != "" {
		return nil, 0, fmt.Errorf("unknown sort column %q", q.SortColumn)
	}
	dir := "ASC"
	if strings.EqualFold(q.SortDirection, "desc") {
		dir = "DESC"
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	where, args := buildWhereClause(q.Range)
	countQuery := "SELECT COUNT(*) FROM stands"
	if where != "" {
		countQuery += " WHERE " + where
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count query failed: %w", err)
	}
	// Pages past the end are empty; comparing page counts keeps the offset from overflowing.
	if page-1 >= (total+pageSize-1)/pageSize {
		return []int{}, total, nil
	}

	query := "SELECT id FROM stands"
	if where != "" {
		query += " WHERE " + where
	}
	// id breaks ties so pages are stable.
	query += fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id ASC LIMIT %d OFFSET %d", sortCol, dir, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("stand query failed: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0, pageSize)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	return ids, total, rows.Err()
}

// Range is the min/max of one parameter.
type Range struct {
	Min float64 `json:"min" msgpack:"min"`
	Max float64 `json:"max" msgpack:"max"`
}

var rangeColumns = []struct {
	key, col string
}{
	{"rop", "rop"},
	{"wob", "wob"},
	{"rpm", "rpm"},
	{"torque", "torque"},
	{"flowRate", "flow_rate"},
	{"depth", "depth"},
	{"distanceDrilled", "distance"},
	{"connectionTime", "connection_time"},
}

// ParameterRanges returns the min/max of each charted parameter, for axis scaling.
// An empty table yields zero ranges.
func (s *Store) ParameterRanges(ctx context.Context) (map[string]Range, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	exprs := make([]string, 0, len(rangeColumns)*2)
	for _, rc := range rangeColumns {
		exprs = append(exprs, fmt.Sprintf("MIN(%s), MAX(%s)", rc.col, rc.col))
	}
	values := make([]sql.NullFloat64, len(rangeColumns)*2)
	dest := make([]interface{}, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.db.QueryRowContext(ctx, "SELECT "+strings.Join(exprs, ", ")+" FROM stands").Scan(dest...); err != nil {
		return nil, fmt.Errorf("range query failed: %w", err)
	}

	out := make(map[string]Range, len(rangeColumns))
	for i, rc := range rangeColumns {
		out[rc.key] = Range{Min: values[2*i].Float64, Max: values[2*i+1].Float64}
	}
	return out, nil
}

// DaySummary aggregates the stands started on one UTC day.
type DaySummary struct {
	Date              string  `json:"date" msgpack:"date"`
	Stands            int     `json:"stands" msgpack:"stands"`
	Footage           float64 `json:"footage" msgpack:"footage"`
	AvgControlPercent float64 `json:"avgControlPercent" msgpack:"avgControlPercent"`
	OpsLimits         int     `json:"opsLimits" msgpack:"opsLimits"`
}

// Days lists the days that have timed stands, oldest first.
func (s *Store) Days(ctx context.Context) ([]DaySummary, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			CAST(FLOOR(start_ms / ?) AS BIGINT) AS day,
			COUNT(*),
			SUM(distance),
			CASE WHEN SUM(distance) > 0 THEN SUM(control_pct * distance) / SUM(distance) ELSE 0 END,
			CAST(SUM(ops_total) AS BIGINT)
		FROM stands
		WHERE start_ms IS NOT NULL
		GROUP BY day
		ORDER BY day
	`, float64(dayMillis))
	if err != nil {
		return nil, fmt.Errorf("day query failed: %w", err)
	}
	defer rows.Close()

	out := make([]DaySummary, 0)
	for rows.Next() {
		var day int64
		var d DaySummary
		if err := rows.Scan(&day, &d.Stands, &d.Footage, &d.AvgControlPercent, &d.OpsLimits); err != nil {
			return nil, err
		}
		d.Date = time.UnixMilli(day * dayMillis).UTC().Format(analysis.DateLayout)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close waits for running queries, closes the database and removes its file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		s.db.Close()
	}
	if s.dbPath != "" {
		os.Remove(s.dbPath)
		// DuckDB may leave a write-ahead log next to the file.
		os.Remove(s.dbPath + ".wal")
	}
	return nil
}
