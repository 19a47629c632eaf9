package sheets

import (
	"context"
	"strconv"

	"payflow/internal/core"
)

// Ports for outbound adapters.
type (
	// ShiftWriter appends one shift as a spreadsheet row.
	ShiftWriter interface {
		AppendShift(ctx context.Context, s core.Shift) (rowRef string, err error)
	}
)

// Header is the column layout written by every ShiftWriter.
var Header = []string{
	"Date", "Job", "Shift Type", "Start", "End", "Break",
	"Total Hours", "Hourly Wage", "Total Wage", "Currency", "Shift ID",
}

// ShiftRow renders s in Header order.
func ShiftRow(s core.Shift) []any {
	brk := ""
	if s.Break != nil {
		brk = s.Break.Start.String() + "-" + s.Break.End.String()
	}
	return []any{
		s.Date.String(),
		s.JobLabel(),
		s.ShiftType,
		s.StartTime.String(),
		s.EndTime.String(),
		brk,
		s.TotalHours,
		s.HourlyWage,
		s.TotalWage,
		s.Currency,
		strconv.FormatInt(s.ID, 10),
	}
}
