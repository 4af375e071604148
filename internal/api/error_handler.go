package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// errorResponse mirrors the success envelope with success=false.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status codes.
//   - Logs store failures and unexpected errors with their cause.
//   - Renders {"success": false, "message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Success: false, Message: msg})
	}
}

// domainStatus lists the taxonomy in match order. ErrNotFound is last among
// the lookups so the more specific conflict errors win.
var domainStatus = []struct {
	err  error
	code int
}{
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrPrivilegeEscalation, http.StatusForbidden},
	{domain.ErrPrivilegeBoundary, http.StatusForbidden},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrNotFoundOrProcessed, http.StatusConflict},
	{domain.ErrAlreadyProcessed, http.StatusConflict},
	{domain.ErrDuplicateStaffID, http.StatusConflict},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrRequestNotFound, http.StatusNotFound},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrLocked, http.StatusLocked},
	{domain.ErrInvalidTarget, http.StatusUnprocessableEntity},
	{domain.ErrInvalidRole, http.StatusUnprocessableEntity},
	{domain.ErrInvalidStaffID, http.StatusUnprocessableEntity},
	{domain.ErrEmptyName, http.StatusUnprocessableEntity},
	{domain.ErrInvalidQuantity, http.StatusUnprocessableEntity},
	{domain.ErrInvalidDate, http.StatusUnprocessableEntity},
	{domain.ErrWeakPassword, http.StatusUnprocessableEntity},
	{domain.ErrMissingIdentity, http.StatusBadRequest},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, ds := range domainStatus {
		if errors.Is(err, ds.err) {
			return ds.code, ds.err.Error()
		}
	}

	if errors.Is(err, domain.ErrUnavailable) {
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("store unavailable")
		return http.StatusServiceUnavailable, domain.ErrUnavailable.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
