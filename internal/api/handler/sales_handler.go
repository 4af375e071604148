package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
)

// HeaderIdempotencyKey lets a client mark resubmissions of the same form.
const HeaderIdempotencyKey = "Idempotency-Key"

// SheetExporter renders a day's entries for download.
type SheetExporter interface {
	DailySheet(w io.Writer, date string, entries []*domain.SalesEntry) error
	Filename(date string) string
}

// SalesHandler serves the caller's daily sales sheet. The user and staff id
// always come from the token, never from the body.
type SalesHandler struct {
	ledger      ports.SalesLedger
	exporter    SheetExporter
	contentType string
}

func NewSalesHandler(ledger ports.SalesLedger, exporter SheetExporter, contentType string) *SalesHandler {
	return &SalesHandler{ledger: ledger, exporter: exporter, contentType: contentType}
}

// Today handles GET /v1/sales/today.
//
// @Summary      Get today's sales entry
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  result{data=domain.SalesEntry}
// @Failure      400  {object}  result
// @Failure      503  {object}  result
// @Router       /v1/sales/today [get]
func (h *SalesHandler) Today(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	entry, err := h.ledger.GetTodayEntry(c.Request().Context(), actor.UID, actor.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("sales entry retrieved", entry))
}

// Submit handles POST /v1/sales/today. Quantities are added to the stored
// totals; an optional Idempotency-Key header suppresses a repeated form.
//
// @Summary      Add quantities to today's sales entry
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Form submission key"
// @Param        body             body      salesEntryRequest  true   "Quantities to add"
// @Success      200              {object}  result{data=domain.SalesEntry}
// @Failure      400              {object}  result
// @Failure      422              {object}  result
// @Failure      423              {object}  result
// @Failure      503              {object}  result
// @Router       /v1/sales/today [post]
func (h *SalesHandler) Submit(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req salesEntryRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	entry, err := h.ledger.SubmitEntry(c.Request().Context(), ports.SubmitEntryInput{
		UserID:         actor.UID,
		StaffID:        actor.StaffID,
		Delta:          req.toDomain(),
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("sales entry updated", entry))
}

// Reset handles POST /v1/sales/today/reset.
//
// @Summary      Zero today's sales entry
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  result{data=domain.SalesEntry}
// @Failure      423  {object}  result
// @Router       /v1/sales/today/reset [post]
func (h *SalesHandler) Reset(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	entry, err := h.ledger.ResetTodayEntry(c.Request().Context(), actor.UID, actor.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("sales entry reset", entry))
}

// Finalize handles POST /v1/sales/today/finalize.
//
// @Summary      Lock today's sales entry
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  result{data=domain.SalesEntry}
// @Router       /v1/sales/today/finalize [post]
func (h *SalesHandler) Finalize(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	entry, err := h.ledger.FinalizeTodayEntry(c.Request().Context(), actor.UID, actor.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("sales entry finalized", entry))
}

// Export handles GET /v1/sales/export?date=YYYY-MM-DD.
//
// @Summary      Download every entry of a day as a spreadsheet
// @Tags         sales
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        date  query     string  false  "Business day, defaults to today"
// @Success      200   {file}    binary
// @Failure      403   {object}  result
// @Failure      422   {object}  result
// @Router       /v1/sales/export [get]
func (h *SalesHandler) Export(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	date := c.QueryParam("date")
	if date == "" {
		date = h.ledger.Today()
	}
	entries, err := h.ledger.DailyEntries(c.Request().Context(), actor, date)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := h.exporter.DailySheet(&buf, date, entries); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+h.exporter.Filename(date)+`"`)
	return c.Blob(http.StatusOK, h.contentType, buf.Bytes())
}
