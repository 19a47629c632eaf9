package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"payflow/internal/core"
)

func newDocument(title string) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	// core fonts are cp1252; ¥ and € survive the translation
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

type column struct {
	title string
	width float64
	align string
}

func tableHeader(pdf *fpdf.Fpdf, tr func(string) string, cols []column) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(224, 231, 255)
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, tr(c.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

func tableRow(pdf *fpdf.Fpdf, tr func(string) string, cols []column, values []string) {
	for i, c := range cols {
		pdf.CellFormat(c.width, 6, tr(values[i]), "1", 0, c.align, false, 0, "")
	}
	pdf.Ln(-1)
}

// WriteShiftsPDF renders the shift history with a total wage line.
func WriteShiftsPDF(w io.Writer, shifts []core.Shift) error {
	pdf, tr := newDocument("Shift history")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Shift history", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	cols := []column{
		{"Date", 25, "L"},
		{"Job", 45, "L"},
		{"Type", 30, "L"},
		{"Time", 30, "C"},
		{"Hours", 20, "R"},
		{"Wage", 30, "R"},
	}
	tableHeader(pdf, tr, cols)

	totals := make(map[string]float64)
	var currencies []string
	for _, s := range shifts {
		tableRow(pdf, tr, cols, []string{
			s.Date.String(),
			s.JobLabel(),
			s.ShiftType,
			s.StartTime.String() + "-" + s.EndTime.String(),
			fmt.Sprintf("%.2f", s.TotalHours),
			core.FormatMoney(s.Currency, s.TotalWage),
		})
		if _, seen := totals[s.Currency]; !seen {
			currencies = append(currencies, s.Currency)
		}
		totals[s.Currency] += s.TotalWage
	}

	parts := make([]string, 0, len(currencies))
	for _, c := range currencies {
		parts = append(parts, core.FormatMoney(c, totals[c]))
	}
	if len(parts) == 0 {
		parts = append(parts, core.FormatMoney("", 0))
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr("Total wage: "+strings.Join(parts, " + ")), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}

// WriteReceiptPDF renders every line item followed by the receipt totals.
func WriteReceiptPDF(w io.Writer, rc core.Receipt) error {
	title := rc.Title
	if title == "" {
		title = fmt.Sprintf("Receipt #%d", rc.ID)
	}
	pdf, tr := newDocument(title)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Receipt", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(title), "", 1, "L", false, 0, "")
	if rc.Date != "" {
		pdf.CellFormat(0, 6, tr("Date: "+rc.Date), "", 1, "L", false, 0, "")
	}
	if rc.Note != "" {
		pdf.MultiCell(0, 5, tr(rc.Note), "", "L", false)
	}
	pdf.Ln(4)

	cols := []column{
		{"Date", 22, "L"},
		{"Category", 28, "L"},
		{"Description", 50, "L"},
		{"Qty", 14, "R"},
		{"Unit Price", 24, "R"},
		{"Tax %", 16, "R"},
		{"Line Total", 26, "R"},
	}
	tableHeader(pdf, tr, cols)
	for _, it := range rc.Items {
		tableRow(pdf, tr, cols, []string{
			it.Date,
			it.Category,
			it.Description,
			formatQuantity(it.Quantity),
			fmt.Sprintf("%.2f", it.UnitPrice),
			fmt.Sprintf("%.1f", it.TaxRate),
			fmt.Sprintf("%.2f", it.LineTotal),
		})
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []struct {
		label string
		value float64
	}{
		{"Subtotal", rc.Subtotal},
		{"Tax", rc.TaxTotal},
	} {
		pdf.CellFormat(154, 6, line.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, fmt.Sprintf("%.2f", line.value), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(154, 7, "Grand Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(26, 7, fmt.Sprintf("%.2f", rc.GrandTotal), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}

func formatQuantity(q float64) string {
	s := fmt.Sprintf("%.2f", q)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
