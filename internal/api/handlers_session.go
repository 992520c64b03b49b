// handlers_session.go - Dashboard session handlers
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rig-dashboard/backend/internal/dashboard"
	"github.com/rig-dashboard/backend/internal/logger"
	"github.com/rig-dashboard/backend/internal/storage"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	store      storage.Store
	sessionMgr SessionManager
	allowed    []string
	opts       dashboard.Options
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(store storage.Store, sessionMgr SessionManager, allowedExtensions []string, opts dashboard.Options) SessionHandler {
	return &SessionHandlerImpl{
		store:      store,
		sessionMgr: sessionMgr,
		allowed:    allowedExtensions,
		opts:       opts,
	}
}

// HandleCreateSession starts an empty dashboard session
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	sess, err := h.sessionMgr.Create()
	if err != nil {
		return sessionError(err, "")
	}
	return c.JSON(http.StatusCreated, sess)
}

// HandleGetSession returns the status of a session
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("id")
	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	// Touch session to prevent cleanup while being viewed
	h.sessionMgr.TouchSession(id)

	return c.JSON(http.StatusOK, sess)
}

// HandleDeleteSession drops a session and its dataset
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if !h.sessionMgr.Delete(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSessionUpload stores the multipart file and ingests it into the session
func (h *SessionHandlerImpl) HandleSessionUpload(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.sessionMgr.GetSession(id); !ok {
		return NewNotFoundError("session", id)
	}

	info, err := saveFormFile(c, h.store, h.allowed)
	if err != nil {
		return err
	}
	return h.ingestStored(c, id, info.ID)
}

// HandleSessionIngest ingests a previously uploaded file into the session
func (h *SessionHandlerImpl) HandleSessionIngest(c echo.Context) error {
	id := c.Param("id")

	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.FileID == "" {
		return NewValidationError("fileId")
	}

	return h.ingestStored(c, id, req.FileID)
}

// ingestStored runs a stored file through the session pipeline and records the outcome on the file.
func (h *SessionHandlerImpl) ingestStored(c echo.Context, id, fileID string) error {
	rc, info, err := h.store.Open(fileID)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return NewNotFoundError("file", fileID)
		}
		return NewInternalError("failed to open file", err)
	}
	defer rc.Close()

	sess, err := h.sessionMgr.Ingest(c.Request().Context(), id, info.ID, info.Name, rc)
	status := storage.StatusIngested
	if err != nil {
		status = storage.StatusError
	}
	if serr := h.store.SetStatus(info.ID, status); serr != nil {
		log := logger.Get("api")
		log.Warn().Err(serr).Str("file", info.ID).Msg("failed to record file status")
	}
	if err != nil {
		return sessionError(err, id)
	}

	return c.JSON(http.StatusOK, sess)
}

// HandleSessionKeepAlive extends session lifetime for active viewing
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("id")
	if ok := h.sessionMgr.TouchSession(id); !ok {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSetActiveStand makes the requested stand active and returns the updated dashboard
func (h *SessionHandlerImpl) HandleSetActiveStand(c echo.Context) error {
	id := c.Param("id")

	var req activeStandRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.StandID == nil {
		return NewValidationError("standId")
	}

	ds, err := h.sessionMgr.SelectStand(id, *req.StandID)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, dashboard.Build(ds, h.opts))
}

// Request/Response types

type ingestRequest struct {
	FileID string `json:"fileId"`
}

type activeStandRequest struct {
	StandID *int `json:"standId"`
}
