package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
)

// UserHandler exposes the staff directory.
type UserHandler struct {
	directory ports.UserDirectory
}

func NewUserHandler(directory ports.UserDirectory) *UserHandler {
	return &UserHandler{directory: directory}
}

// List handles GET /v1/users.
//
// @Summary      List staff members
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  result{data=[]domain.User}
// @Failure      401  {object}  result
// @Failure      403  {object}  result
// @Failure      503  {object}  result
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	users, err := h.directory.ListUsers(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("users retrieved", users))
}

// Get handles GET /v1/users/:id.
//
// @Summary      Get a staff member
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  result{data=domain.User}
// @Failure      403  {object}  result
// @Failure      404  {object}  result
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	user, err := h.directory.GetUser(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("user retrieved", user))
}

// Create handles POST /v1/users.
//
// @Summary      Create a staff member directly
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "Staff profile"
// @Success      201   {object}  result{data=domain.User}
// @Failure      403   {object}  result
// @Failure      409   {object}  result
// @Failure      422   {object}  result
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req createUserRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	user, err := h.directory.CreateUser(c.Request().Context(), actor, ports.CreateUserInput{
		Name:     req.Name,
		StaffID:  req.StaffID,
		Role:     domain.Role(req.Role),
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok("user created", user))
}

// Delete handles DELETE /v1/users/:id.
//
// @Summary      Remove a staff member directly
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  result
// @Failure      403  {object}  result
// @Failure      404  {object}  result
// @Router       /v1/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.directory.DeleteUser(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("user deleted", nil))
}
