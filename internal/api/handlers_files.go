// handlers_files.go - Uploaded drilling file handlers
package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rig-dashboard/backend/internal/models"
	"github.com/rig-dashboard/backend/internal/storage"
)

const (
	defaultRecentFiles = 20
	maxRecentFiles     = 100
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store   storage.Store
	allowed []string
}

// NewFileHandler creates a file handler. An empty allowed list accepts every extension.
func NewFileHandler(store storage.Store, allowedExtensions []string) FileHandler {
	return &FileHandlerImpl{
		store:   store,
		allowed: allowedExtensions,
	}
}

// HandleUploadFile accepts a multipart "file" field and saves it to storage
func (h *FileHandlerImpl) HandleUploadFile(c echo.Context) error {
	info, err := saveFormFile(c, h.store, h.allowed)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, info)
}

// HandleGetRecentFiles returns the most recent uploads, newest first
func (h *FileHandlerImpl) HandleGetRecentFiles(c echo.Context) error {
	limit := defaultRecentFiles
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return NewValidationError("limit")
		}
		limit = min(n, maxRecentFiles)
	}

	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for a specific file
func (h *FileHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleDeleteFile deletes an uploaded file
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return NewNotFoundError("file", id)
		}
		return NewInternalError("failed to delete file", err)
	}

	return c.NoContent(http.StatusNoContent)
}

// saveFormFile stores the multipart "file" field after checking its extension.
func saveFormFile(c echo.Context, store storage.Store, allowed []string) (*models.FileInfo, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, NewBadRequestError("no file provided", err)
	}
	if !extensionAllowed(file.Filename, allowed) {
		return nil, NewBadRequestError(fmt.Sprintf("unsupported file type: %s", filepath.Ext(file.Filename)), nil)
	}

	src, err := file.Open()
	if err != nil {
		return nil, NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := store.Save(file.Filename, src)
	if err != nil {
		return nil, NewInternalError("failed to save file", err)
	}
	return info, nil
}

func extensionAllowed(name string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
