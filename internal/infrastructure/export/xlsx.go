// Package export renders the daily sales sheet as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mealvilla/staff-portal/internal/core/domain"
)

// ContentType is the MIME type of the workbook written by DailySheet.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	categories = []string{"collected", "sold_cash", "sold_transfer", "sold_card", "returned", "damages"}
	products   = []string{"burger", "jumbo", "family", "short"}
)

// XLSXExporter writes one row per staff entry and one column per
// category/product pair.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Filename returns the download name for date.
func (XLSXExporter) Filename(date string) string {
	return "sales-" + date + ".xlsx"
}

func (XLSXExporter) DailySheet(w io.Writer, date string, entries []*domain.SalesEntry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := date
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	header := []any{"staff_id", "user_id", "finalized"}
	for _, c := range categories {
		for _, p := range products {
			header = append(header, c+"."+p)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("export: header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	for i, e := range entries {
		row := []any{e.StaffID, e.UserID, e.IsFinalized}
		cats := e.Categories()
		for _, c := range categories {
			fields := cats[c].Fields()
			for _, p := range products {
				row = append(row, fields[p])
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: row %d: %w", i, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("export: panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}
