// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/rig-dashboard/backend/internal/models"
	"github.com/rig-dashboard/backend/internal/standstore"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// FileHandler handles uploaded drilling file operations
type FileHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// SessionHandler handles dashboard session lifecycle and ingest
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSessionUpload(c echo.Context) error
	HandleSessionIngest(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
	HandleSetActiveStand(c echo.Context) error
}

// DashboardHandler serves the structures derived from a session's dataset
type DashboardHandler interface {
	HandleDashboard(c echo.Context) error
	HandleDashboardMsgpack(c echo.Context) error
	HandleSeries(c echo.Context) error
	HandleStands(c echo.Context) error
	HandleStandDetail(c echo.Context) error
	HandleSummary(c echo.Context) error
	HandleBreakdown(c echo.Context) error
	HandleRanges(c echo.Context) error
	HandleDays(c echo.Context) error
	HandleCompare(c echo.Context) error
	HandleExport(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Create() (models.DashboardSession, error)
	GetSession(id string) (models.DashboardSession, bool)
	TouchSession(id string) bool
	Delete(id string) bool
	Ingest(ctx context.Context, id, fileID, fileName string, r io.Reader) (models.DashboardSession, error)
	Dataset(id string) (*models.Dataset, error)
	SelectStand(id string, standID int) (*models.Dataset, error)
	QueryStands(ctx context.Context, id string, q standstore.StandQuery) ([]models.Stand, int, error)
	ParameterRanges(ctx context.Context, id string) (map[string]standstore.Range, error)
	Days(ctx context.Context, id string) ([]standstore.DaySummary, error)
}
