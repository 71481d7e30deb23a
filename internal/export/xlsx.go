// Package export writes notification lists to spreadsheet files.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nhle/inventory-desk/internal/model"
)

const (
	SheetNotifications = "Notifications"
	SheetLowStock      = "Low stock"
)

// Columns is the header row of every exported sheet.
var Columns = []string{
	"ID", "Type", "Title", "Message", "Priority", "Category",
	"Read", "Read at", "Created at", "Age",
}

// Workbook is the content of an export.
type Workbook struct {
	Notifications []model.Notification
	LowStock      []model.Notification
}

// WriteXLSX writes wb to path, appending ".xlsx" when missing, and
// returns the path written.
func WriteXLSX(path string, wb Workbook) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("export path must not be empty")
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetNotifications); err != nil {
		return "", fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetLowStock); err != nil {
		return "", fmt.Errorf("creating sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return "", fmt.Errorf("creating header style: %w", err)
	}

	for sheet, items := range map[string][]model.Notification{
		SheetNotifications: wb.Notifications,
		SheetLowStock:      wb.LowStock,
	} {
		if err := writeSheet(f, sheet, headerStyle, items); err != nil {
			return "", err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, items []model.Notification) error {
	for i, col := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("writing header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("styling header %s: %w", cell, err)
		}
	}

	for rowIdx, n := range items {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowIdx+2), ptr(row(n))); err != nil {
			return fmt.Errorf("writing notification %d: %w", n.ID, err)
		}
	}

	for i := range Columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := 15.0
		if Columns[i] == "Message" {
			width = 48
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}
	return nil
}

func row(n model.Notification) []interface{} {
	read := "no"
	if n.IsRead {
		read = "yes"
	}
	readAt := ""
	if n.ReadAt != nil {
		readAt = n.ReadAt.Format(time.DateTime)
	}
	return []interface{}{
		n.ID, string(n.Type), n.Title, n.Message,
		string(n.Priority), string(n.Category),
		read, readAt, n.CreatedAt, n.TimeAgo,
	}
}

func ptr[T any](v T) *T { return &v }
