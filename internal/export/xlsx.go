package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"payflow/internal/core"
)

const shiftSheet = "Shifts"

var shiftColumns = []string{
	"Date", "Job", "Shift Type", "Start", "End", "Break Start", "Break End",
	"Total Hours", "Hourly Wage", "Currency", "Total Wage",
}

// WriteShiftsXLSX writes a workbook with a Shifts sheet and a totals row.
func WriteShiftsXLSX(w io.Writer, shifts []core.Shift) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", shiftSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E0E7FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	header := make([]any, len(shiftColumns))
	for i, c := range shiftColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(shiftSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol := colName(len(shiftColumns) - 1)
	if err := f.SetCellStyle(shiftSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	var hours, wage float64
	row := 2
	for _, r := range ShiftRecords(shifts) {
		values := []any{r.Date, r.Job, r.ShiftType, r.Start, r.End, r.BreakStart, r.BreakEnd,
			r.TotalHours, r.HourlyWage, r.Currency, r.TotalWage}
		if err := f.SetSheetRow(shiftSheet, cell("A", row), &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		hours += r.TotalHours
		wage += r.TotalWage
		row++
	}

	totals := []any{"Total", nil, nil, nil, nil, nil, nil, hours, nil, nil, wage}
	if err := f.SetSheetRow(shiftSheet, cell("A", row), &totals); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}

	f.SetColWidth(shiftSheet, "A", "A", 12)
	f.SetColWidth(shiftSheet, "B", "C", 18)
	f.SetColWidth(shiftSheet, "H", lastCol, 13)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
