// handlers_dashboard.go - Dashboard data handlers
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rig-dashboard/backend/internal/analysis"
	"github.com/rig-dashboard/backend/internal/dashboard"
	"github.com/rig-dashboard/backend/internal/drilling"
	"github.com/rig-dashboard/backend/internal/models"
	"github.com/rig-dashboard/backend/internal/standstore"
)

const (
	mimeMsgpack = "application/msgpack"
	mimeXLSX    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DashboardHandlerImpl implements the DashboardHandler interface
type DashboardHandlerImpl struct {
	sessionMgr SessionManager
	opts       dashboard.Options
	now        func() time.Time
}

// NewDashboardHandler creates a new dashboard handler instance
func NewDashboardHandler(sessionMgr SessionManager, opts dashboard.Options) DashboardHandler {
	return &DashboardHandlerImpl{
		sessionMgr: sessionMgr,
		opts:       opts,
		now:        time.Now,
	}
}

// dataset loads the session dataset and keeps the session alive.
func (h *DashboardHandlerImpl) dataset(c echo.Context) (*models.Dataset, error) {
	id := c.Param("id")
	ds, err := h.sessionMgr.Dataset(id)
	if err != nil {
		return nil, sessionError(err, id)
	}
	h.sessionMgr.TouchSession(id)
	return ds, nil
}

// HandleDashboard returns the full dashboard view as JSON
func (h *DashboardHandlerImpl) HandleDashboard(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboard.Build(ds, h.opts))
}

// HandleDashboardMsgpack returns the full dashboard view in MessagePack format
func (h *DashboardHandlerImpl) HandleDashboardMsgpack(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(dashboard.Build(ds, h.opts))
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, mimeMsgpack, data)
}

// HandleSeries returns the series and metrics of the stands inside a time window
func (h *DashboardHandlerImpl) HandleSeries(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}

	r, err := h.timeRange(c, ds)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboard.BuildWindow(ds, r, h.opts))
}

// timeRange resolves preset/start/end query parameters. Explicit dates win over a preset.
func (h *DashboardHandlerImpl) timeRange(c echo.Context, ds *models.Dataset) (analysis.TimeRange, error) {
	start, end := c.QueryParam("start"), c.QueryParam("end")
	preset := analysis.Preset(c.QueryParam("preset"))

	if start != "" || end != "" || preset == analysis.PresetCustom {
		r, err := analysis.ParseRange(start, end)
		if err != nil {
			return analysis.TimeRange{}, NewBadRequestError("invalid date range", err)
		}
		return r, nil
	}

	r, err := analysis.PresetRange(preset, h.now(), ds.Stands)
	if err != nil {
		return analysis.TimeRange{}, NewValidationError("preset")
	}
	return r, nil
}

// HandleStands returns one sorted page of the stand history
func (h *DashboardHandlerImpl) HandleStands(c echo.Context) error {
	id := c.Param("id")

	q := standstore.StandQuery{
		SortColumn:    c.QueryParam("sort"),
		SortDirection: strings.ToLower(c.QueryParam("dir")),
	}
	if !standstore.ValidSort(q.SortColumn) {
		return NewValidationError("sort")
	}
	if q.SortDirection != "" && q.SortDirection != "asc" && q.SortDirection != "desc" {
		return NewValidationError("dir")
	}

	var err error
	if q.Page, err = intQuery(c, "page", 1); err != nil {
		return err
	}
	if q.PageSize, err = intQuery(c, "pageSize", standstore.DefaultPageSize); err != nil {
		return err
	}
	if q.PageSize > standstore.MaxPageSize {
		q.PageSize = standstore.MaxPageSize
	}
	if q.Range, err = analysis.ParseRange(c.QueryParam("start"), c.QueryParam("end")); err != nil {
		return NewBadRequestError("invalid date range", err)
	}

	stands, total, err := h.sessionMgr.QueryStands(c.Request().Context(), id, q)
	if err != nil {
		return sessionError(err, id)
	}
	h.sessionMgr.TouchSession(id)

	return c.JSON(http.StatusOK, standsResponse{
		Stands:   stands,
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
	})
}

// HandleStandDetail returns a stand with its indicators and ratings
func (h *DashboardHandlerImpl) HandleStandDetail(c echo.Context) error {
	raw := c.Param("standId")
	standID, err := strconv.Atoi(raw)
	if err != nil {
		return NewValidationError("standId")
	}

	ds, err := h.dataset(c)
	if err != nil {
		return err
	}

	detail, err := dashboard.Detail(ds, standID, h.opts)
	if errors.Is(err, dashboard.ErrStandNotFound) {
		return NewNotFoundError("stand", raw)
	}
	if err != nil {
		return NewInternalError("failed to build stand detail", err)
	}
	return c.JSON(http.StatusOK, detail)
}

// HandleSummary returns the ops-limits tracker summary for a period of a day
func (h *DashboardHandlerImpl) HandleSummary(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}

	day, err := h.day(c, ds)
	if err != nil {
		return err
	}
	sum, err := analysis.Summarize(ds.Stands, analysis.Period(c.QueryParam("period")), day)
	if err != nil {
		return NewValidationError("period")
	}
	return c.JSON(http.StatusOK, sum)
}

// HandleBreakdown returns the 6h/12h/24h breakdown of a day
func (h *DashboardHandlerImpl) HandleBreakdown(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}

	day, err := h.day(c, ds)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, analysis.Breakdown(ds.Stands, day))
}

// day reads the "date" query parameter. Without one it picks the day of the
// latest timed stand, falling back to today.
func (h *DashboardHandlerImpl) day(c echo.Context, ds *models.Dataset) (time.Time, error) {
	if v := c.QueryParam("date"); v != "" {
		d, err := analysis.ParseDate(v)
		if err != nil {
			return time.Time{}, NewBadRequestError("invalid date", err)
		}
		return d, nil
	}

	var latest time.Time
	for i := range ds.Stands {
		if st := ds.Stands[i].StartTime; st != nil && st.After(latest) {
			latest = *st
		}
	}
	if latest.IsZero() {
		latest = h.now()
	}
	return analysis.StartOfDay(latest), nil
}

// HandleRanges returns the min/max of every chart parameter
func (h *DashboardHandlerImpl) HandleRanges(c echo.Context) error {
	id := c.Param("id")
	ranges, err := h.sessionMgr.ParameterRanges(c.Request().Context(), id)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, ranges)
}

// HandleDays returns the per-day stand count and footage
func (h *DashboardHandlerImpl) HandleDays(c echo.Context) error {
	id := c.Param("id")
	days, err := h.sessionMgr.Days(c.Request().Context(), id)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, days)
}

// HandleCompare aggregates a quick selection or an explicit list of stands
func (h *DashboardHandlerImpl) HandleCompare(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}

	var ids []int
	if sel := c.QueryParam("select"); sel != "" && sel != string(analysis.SelectCustom) {
		ids, err = analysis.SelectStands(ds.Stands, analysis.QuickSelect(sel))
		if err != nil {
			return NewValidationError("select")
		}
	} else {
		ids, err = parseIDList(c.QueryParam("stands"))
		if err != nil {
			return NewBadRequestError("invalid stand list", err)
		}
	}

	return c.JSON(http.StatusOK, analysis.Compare(ds.Stands, ids))
}

// HandleExport downloads the session's stands as an xlsx workbook
func (h *DashboardHandlerImpl) HandleExport(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := drilling.ExportWorkbook(&buf, ds); err != nil {
		return NewInternalError("failed to export workbook", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exportFileName(ds.WellID)))
	return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}

// Request/Response types

type standsResponse struct {
	Stands   []models.Stand `json:"stands"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Total    int            `json:"total"`
}

// Helper functions

func intQuery(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, NewValidationError(name)
	}
	return n, nil
}

// parseIDList parses a comma separated id list, ignoring empty items.
func parseIDList(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("stand id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func exportFileName(wellID string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(wellID, "_"), "_")
	if name == "" {
		name = "well"
	}
	return name + "_stands.xlsx"
}
