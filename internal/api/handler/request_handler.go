package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
)

// RequestHandler serves supervisor requests and their approval.
type RequestHandler struct {
	ledger   ports.RequestLedger
	workflow ports.ApprovalWorkflow
}

func NewRequestHandler(ledger ports.RequestLedger, workflow ports.ApprovalWorkflow) *RequestHandler {
	return &RequestHandler{ledger: ledger, workflow: workflow}
}

// pathKinds maps the URL segment to the request kind.
var pathKinds = map[string]domain.RequestKind{
	"deletion":  domain.KindDeletion,
	"add-staff": domain.KindAddStaff,
}

func kindParam(c echo.Context) (domain.RequestKind, error) {
	kind, found := pathKinds[c.Param("kind")]
	if !found {
		return "", echo.NewHTTPError(http.StatusNotFound, "unknown request kind")
	}
	return kind, nil
}

// CreateDeletion handles POST /v1/requests/deletion.
//
// @Summary      Request removal of a staff member
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      deletionRequestBody  true  "Target and reason"
// @Success      201   {object}  result{data=domain.StaffRequest}
// @Failure      403   {object}  result
// @Failure      404   {object}  result
// @Failure      422   {object}  result
// @Router       /v1/requests/deletion [post]
func (h *RequestHandler) CreateDeletion(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req deletionRequestBody
	if err := bindValid(c, &req); err != nil {
		return err
	}

	created, err := h.ledger.CreateDeletionRequest(c.Request().Context(), actor, ports.DeletionRequestInput{
		TargetUserUID: req.TargetUserUID,
		Reason:        req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok("deletion request submitted", created))
}

// CreateAddStaff handles POST /v1/requests/add-staff.
//
// @Summary      Request a new staff member
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addStaffRequestBody  true  "Proposed profile"
// @Success      201   {object}  result{data=domain.StaffRequest}
// @Failure      403   {object}  result
// @Failure      409   {object}  result
// @Failure      422   {object}  result
// @Router       /v1/requests/add-staff [post]
func (h *RequestHandler) CreateAddStaff(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req addStaffRequestBody
	if err := bindValid(c, &req); err != nil {
		return err
	}

	created, err := h.ledger.CreateAddStaffRequest(c.Request().Context(), actor, ports.AddStaffRequestInput{
		Name:            req.Name,
		StaffID:         req.StaffID,
		Role:            domain.Role(req.Role),
		InitialPassword: req.InitialPassword,
		Reason:          req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ok("add-staff request submitted", created))
}

// List handles GET /v1/requests/:kind?status=.
//
// @Summary      List requests of a kind
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        kind    path      string  true   "deletion or add-staff"
// @Param        status  query     string  false  "pending, approved or declined"
// @Success      200     {object}  result{data=[]domain.StaffRequest}
// @Failure      403     {object}  result
// @Failure      404     {object}  result
// @Failure      422     {object}  result
// @Router       /v1/requests/{kind} [get]
func (h *RequestHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	kind, err := kindParam(c)
	if err != nil {
		return err
	}
	status := domain.RequestStatus(c.QueryParam("status"))
	switch status {
	case "", domain.StatusPending, domain.StatusApproved, domain.StatusDeclined:
	default:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "status must be one of: pending approved declined")
	}

	items, err := h.ledger.ListRequests(c.Request().Context(), actor, kind, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("requests retrieved", items))
}

// Get handles GET /v1/requests/:kind/:id. Supervisors may only read their own.
//
// @Summary      Get a request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path      string  true  "deletion or add-staff"
// @Param        id    path      string  true  "Request id"
// @Success      200   {object}  result{data=domain.StaffRequest}
// @Failure      403   {object}  result
// @Failure      404   {object}  result
// @Router       /v1/requests/{kind}/{id} [get]
func (h *RequestHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	kind, err := kindParam(c)
	if err != nil {
		return err
	}

	req, err := h.ledger.GetRequest(c.Request().Context(), kind, c.Param("id"))
	if err != nil {
		return err
	}
	if !actor.Role.Privileged() && req.RequestedByUID != actor.UID {
		return domain.ErrForbidden
	}
	return c.JSON(http.StatusOK, ok("request retrieved", req))
}

// ApproveDeletion handles POST /v1/requests/deletion/:id/approve.
//
// @Summary      Approve a deletion request
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  result{data=domain.StaffRequest}
// @Failure      403  {object}  result
// @Failure      409  {object}  result
// @Router       /v1/requests/deletion/{id}/approve [post]
func (h *RequestHandler) ApproveDeletion(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	updated, err := h.workflow.ApproveDeletion(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("deletion request approved", updated))
}

// DeclineDeletion handles POST /v1/requests/deletion/:id/decline.
//
// @Summary      Decline a deletion request
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true   "Request id"
// @Param        body  body      declineRequestBody  false  "Feedback and requester"
// @Success      200   {object}  result{data=domain.StaffRequest}
// @Failure      403   {object}  result
// @Failure      409   {object}  result
// @Router       /v1/requests/deletion/{id}/decline [post]
func (h *RequestHandler) DeclineDeletion(c echo.Context) error {
	return h.decline(c, h.workflow.DeclineDeletion, "deletion request declined")
}

// ApproveAddStaff handles POST /v1/requests/add-staff/:id/approve.
//
// @Summary      Approve an add-staff request
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  result{data=domain.StaffRequest}
// @Failure      403  {object}  result
// @Failure      409  {object}  result
// @Router       /v1/requests/add-staff/{id}/approve [post]
func (h *RequestHandler) ApproveAddStaff(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	updated, err := h.workflow.ApproveAddStaff(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("add-staff request approved", updated))
}

// DeclineAddStaff handles POST /v1/requests/add-staff/:id/decline.
//
// @Summary      Decline an add-staff request
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true   "Request id"
// @Param        body  body      declineRequestBody  false  "Feedback and requester"
// @Success      200   {object}  result{data=domain.StaffRequest}
// @Failure      403   {object}  result
// @Failure      409   {object}  result
// @Router       /v1/requests/add-staff/{id}/decline [post]
func (h *RequestHandler) DeclineAddStaff(c echo.Context) error {
	return h.decline(c, h.workflow.DeclineAddStaff, "add-staff request declined")
}

type declineFunc func(ctx context.Context, actor domain.Actor, id string, in ports.DeclineInput) (*domain.StaffRequest, error)

func (h *RequestHandler) decline(c echo.Context, fn declineFunc, message string) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req declineRequestBody
	if c.Request().ContentLength != 0 {
		if err := bindValid(c, &req); err != nil {
			return err
		}
	}

	updated, err := fn(c.Request().Context(), actor, c.Param("id"), ports.DeclineInput{
		Feedback:       req.Feedback,
		RequesterUID:   req.RequesterUID,
		TargetUserName: req.TargetUserName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(message, updated))
}
