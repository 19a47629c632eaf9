package core

import (
	"errors"
	"math"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidUnitPrice = errors.New("unit price must not be negative")
	ErrInvalidTaxRate   = errors.New("tax rate must not be negative")
)

// LineItem is one receipt line before aggregation.
type LineItem struct {
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"` // percent
}

// Validate is applied by callers before an item reaches SummarizeReceipt.
func (li LineItem) Validate() error {
	if !isFinite(li.Quantity) || li.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !isFinite(li.UnitPrice) || li.UnitPrice < 0 {
		return ErrInvalidUnitPrice
	}
	if !isFinite(li.TaxRate) || li.TaxRate < 0 {
		return ErrInvalidTaxRate
	}
	return nil
}

func (li LineItem) Base() float64 { return finiteOrZero(li.Quantity) * finiteOrZero(li.UnitPrice) }

func (li LineItem) Tax() float64 { return li.Base() * finiteOrZero(li.TaxRate) / 100 }

func (li LineItem) Total() float64 { return li.Base() + li.Tax() }

// DetailedLine is a LineItem with its computed total.
type DetailedLine struct {
	LineItem
	LineTotal float64 `json:"line_total"`
}

type ReceiptSummary struct {
	Subtotal float64        `json:"subtotal"`
	Tax      float64        `json:"tax"`
	Grand    float64        `json:"grand_total"`
	Detailed []DetailedLine `json:"detailed"`
}

// SummarizeReceipt totals items in the order given. Non-finite numbers are
// read as zero; it never fails.
func SummarizeReceipt(items []LineItem) ReceiptSummary {
	sum := ReceiptSummary{Detailed: make([]DetailedLine, 0, len(items))}
	for _, it := range items {
		base := it.Base()
		tax := it.Tax()
		sum.Subtotal += base
		sum.Tax += tax
		sum.Detailed = append(sum.Detailed, DetailedLine{LineItem: it, LineTotal: base + tax})
	}
	sum.Grand = sum.Subtotal + sum.Tax
	return sum
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}
