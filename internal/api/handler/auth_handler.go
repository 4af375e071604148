package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mealvilla/staff-portal/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a staff member and returns a JWT.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Staff id and password"
// @Success      200   {object}  result{data=loginResponse}
// @Failure      400   {object}  result
// @Failure      401   {object}  result
// @Failure      403   {object}  result
// @Failure      422   {object}  result
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.StaffID, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("login successful", loginResponse{Token: token, User: user}))
}
