package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mealvilla/staff-portal/internal/core/ports"
)

type NotificationHandler struct {
	feed ports.NotificationFeed
}

func NewNotificationHandler(feed ports.NotificationFeed) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

// List handles GET /v1/notifications?limit=.
//
// @Summary      Notification feed for the caller
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max items (default 50, max 200)"
// @Success      200    {object}  result{data=[]domain.Notification}
// @Failure      400    {object}  result
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
	}

	items, err := h.feed.Feed(c.Request().Context(), actor, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("notifications retrieved", items))
}
