// Package export renders shifts and receipts as CSV, XLSX and PDF.
package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"payflow/internal/core"
)

// ShiftRecord is one exported shift row.
type ShiftRecord struct {
	Date       string  `csv:"Date"`
	Job        string  `csv:"Job"`
	ShiftType  string  `csv:"Shift Type"`
	Start      string  `csv:"Start"`
	End        string  `csv:"End"`
	BreakStart string  `csv:"Break Start"`
	BreakEnd   string  `csv:"Break End"`
	TotalHours float64 `csv:"Total Hours"`
	HourlyWage float64 `csv:"Hourly Wage"`
	Currency   string  `csv:"Currency"`
	TotalWage  float64 `csv:"Total Wage"`
}

func ShiftRecords(shifts []core.Shift) []ShiftRecord {
	out := make([]ShiftRecord, 0, len(shifts))
	for _, s := range shifts {
		rec := ShiftRecord{
			Date:       s.Date.String(),
			Job:        s.JobLabel(),
			ShiftType:  s.ShiftType,
			Start:      s.StartTime.String(),
			End:        s.EndTime.String(),
			TotalHours: s.TotalHours,
			HourlyWage: s.HourlyWage,
			Currency:   s.Currency,
			TotalWage:  s.TotalWage,
		}
		if s.Break != nil {
			rec.BreakStart = s.Break.Start.String()
			rec.BreakEnd = s.Break.End.String()
		}
		out = append(out, rec)
	}
	return out
}

// WriteShiftsCSV writes a header row followed by one row per shift.
func WriteShiftsCSV(w io.Writer, shifts []core.Shift) error {
	if err := gocsv.Marshal(ShiftRecords(shifts), w); err != nil {
		return fmt.Errorf("marshal shifts csv: %w", err)
	}
	return nil
}
