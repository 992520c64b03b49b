// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rig-dashboard/backend/internal/config"
	"github.com/rig-dashboard/backend/internal/dashboard"
	"github.com/rig-dashboard/backend/internal/logger"
	"github.com/rig-dashboard/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store             storage.Store
	SessionMgr        SessionManager
	Options           dashboard.Options
	AllowedExtensions []string
	AllowFileDeletion bool
	Version           string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Files     FileHandler
	Sessions  SessionHandler
	Dashboard DashboardHandler

	allowFileDeletion bool
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version),
		Files:     NewFileHandler(deps.Store, deps.AllowedExtensions),
		Sessions:  NewSessionHandler(deps.Store, deps.SessionMgr, deps.AllowedExtensions, deps.Options),
		Dashboard: NewDashboardHandler(deps.SessionMgr, deps.Options),

		allowFileDeletion: deps.AllowFileDeletion,
	}
}

// RegisterRoutes registers all API routes under /api
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// File management
	files := apiGroup.Group("/files")
	files.POST("/upload", handlers.Files.HandleUploadFile)
	files.GET("/recent", handlers.Files.HandleGetRecentFiles)
	files.GET("/:id", handlers.Files.HandleGetFile)

	// Conditional delete based on config
	if handlers.allowFileDeletion {
		files.DELETE("/:id", handlers.Files.HandleDeleteFile)
	}

	// Session lifecycle
	sessions := apiGroup.Group("/sessions")
	sessions.POST("", handlers.Sessions.HandleCreateSession)
	sessions.GET("/:id", handlers.Sessions.HandleGetSession)
	sessions.DELETE("/:id", handlers.Sessions.HandleDeleteSession)
	sessions.POST("/:id/upload", handlers.Sessions.HandleSessionUpload)
	sessions.POST("/:id/ingest", handlers.Sessions.HandleSessionIngest)
	sessions.POST("/:id/keepalive", handlers.Sessions.HandleSessionKeepAlive)
	sessions.PUT("/:id/active-stand", handlers.Sessions.HandleSetActiveStand)

	// Dashboard data
	sessions.GET("/:id/dashboard", handlers.Dashboard.HandleDashboard)
	sessions.GET("/:id/dashboard/msgpack", handlers.Dashboard.HandleDashboardMsgpack)
	sessions.GET("/:id/series", handlers.Dashboard.HandleSeries)
	sessions.GET("/:id/stands", handlers.Dashboard.HandleStands)
	sessions.GET("/:id/stands/:standId", handlers.Dashboard.HandleStandDetail)
	sessions.GET("/:id/summary", handlers.Dashboard.HandleSummary)
	sessions.GET("/:id/breakdown", handlers.Dashboard.HandleBreakdown)
	sessions.GET("/:id/ranges", handlers.Dashboard.HandleRanges)
	sessions.GET("/:id/days", handlers.Dashboard.HandleDays)
	sessions.GET("/:id/compare", handlers.Dashboard.HandleCompare)
	sessions.GET("/:id/export", handlers.Dashboard.HandleExport)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg *config.AppConfig) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	reqLog := logger.Get("http")
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Log.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/keepalive") || path == "/api/health"
		},
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := reqLog.Info()
			if v.Error != nil {
				ev = reqLog.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			reqLog.Error().Err(err).Bytes("stack", stack).Msg("handler panicked")
			return err
		},
	}))

	if cfg.Processing.RequestTimeoutSeconds > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: time.Duration(cfg.Processing.RequestTimeoutSeconds) * time.Second,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return strings.HasSuffix(path, "/upload") || strings.HasSuffix(path, "/ingest")
			},
			ErrorMessage: "Request timeout - query took too long",
		}))
	}

	// Compression middleware
	if cfg.Processing.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Processing.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/export")
			},
		}))
	}

	// Body limit middleware
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{echo.HeaderContentDisposition},
		}))
	}
}
