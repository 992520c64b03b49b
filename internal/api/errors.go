// errors.go - Structured error handling for API responses
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rig-dashboard/backend/internal/dashboard"
	"github.com/rig-dashboard/backend/internal/drilling"
	"github.com/rig-dashboard/backend/internal/logger"
	"github.com/rig-dashboard/backend/internal/parser"
	"github.com/rig-dashboard/backend/internal/session"
	"github.com/rig-dashboard/backend/internal/storage"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewProcessingError creates a 422 error for a file that could not be ingested.
// The user-facing message carries the underlying reason.
func NewProcessingError(cause error) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "PROCESSING_FAILED",
		Message: "Failed to process file: " + cause.Error(),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// isIngestError reports whether err comes from decoding or normalizing a file.
func isIngestError(err error) bool {
	var de *parser.DecodeError
	var nv *drilling.NoValidDataError
	return errors.As(err, &de) || errors.As(err, &nv)
}

// sessionError maps session manager errors onto API errors.
func sessionError(err error, id string) *APIError {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return NewNotFoundError("session", id)
	case errors.Is(err, session.ErrNoDataset):
		return NewConflictError("no dataset loaded in session " + id)
	case errors.Is(err, session.ErrTooManySessions):
		return NewServiceUnavailableError("too many active sessions")
	case errors.Is(err, dashboard.ErrStandNotFound), errors.Is(err, storage.ErrFileNotFound):
		return &APIError{
			Status:  http.StatusNotFound,
			Code:    "NOT_FOUND",
			Message: err.Error(),
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewServiceUnavailableError("request cancelled")
	case isIngestError(err):
		return NewProcessingError(err)
	default:
		return NewInternalError("session operation failed", err)
	}
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}

	if apiErr.Status >= http.StatusInternalServerError {
		log := logger.Get("api")
		log.Error().Err(err).Str("path", c.Request().URL.Path).Int("status", apiErr.Status).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(apiErr.Status)
		return
	}
	c.JSON(apiErr.Status, apiErr)
}
