package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mealvilla/staff-portal/internal/api/middleware"
	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// ctxActor rebuilds the caller from the claims injected by the Auth
// middleware. A missing uid or role means the middleware did not run.
func ctxActor(c echo.Context) (domain.Actor, error) {
	uid, _ := c.Get(middleware.KeyUID).(string)
	role, _ := c.Get(middleware.KeyRole).(string)
	if uid == "" || role == "" {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	name, _ := c.Get(middleware.KeyName).(string)
	staffID, _ := c.Get(middleware.KeyStaffID).(string)

	return domain.Actor{
		UID:     uid,
		Name:    name,
		Role:    domain.Role(role),
		StaffID: staffID,
	}, nil
}

// bindValid binds the body into req and runs the registered validator.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
