package http

import (
	"github.com/labstack/echo/v4"

	"github.com/mealvilla/staff-portal/internal/infrastructure/http/handlers"
)

// RegisterProbes mounts the unauthenticated health endpoints on e.
func RegisterProbes(e *echo.Echo, checks map[string]handlers.Check) {
	h := handlers.NewHealthHandler(checks)
	e.GET("/health", h.Liveness)
	e.GET("/health/ready", h.Readiness)
}
