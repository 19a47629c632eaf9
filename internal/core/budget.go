package core

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	BudgetOK   BudgetStatus = "ok"
	BudgetNear BudgetStatus = "near"
	BudgetOver BudgetStatus = "over"
)

const (
	nearThreshold = 80
	overThreshold = 100
)

type (
	BudgetStatus string

	BudgetProgress struct {
		Budget
		Spent   decimal.Decimal `json:"spent"`
		Percent int             `json:"percent"` // clamped to 100 for display
		Status  BudgetStatus    `json:"status"`
	}

	BudgetAlert struct {
		BudgetID int64        `json:"budget_id"`
		Category string       `json:"category"`
		Level    BudgetStatus `json:"level"`
		Percent  int          `json:"percent"`
		Message  string       `json:"message"`
	}
)

// MonthlyExpenseTotals sums expenses per category for dates inside month.
func MonthlyExpenseTotals(month string, expenses []Expense) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	if month == "" {
		return totals
	}
	for _, e := range expenses {
		if e.Date.MonthKey() != month {
			continue
		}
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	return totals
}

// spentPercent is spent/amount*100, zero when the budget amount is zero.
func spentPercent(spent, amount decimal.Decimal) float64 {
	if !amount.IsPositive() {
		return 0
	}
	f, _ := spent.Div(amount).Mul(decimal.NewFromInt(100)).Float64()
	return f
}

func statusFor(pct float64) BudgetStatus {
	switch {
	case pct >= overThreshold:
		return BudgetOver
	case pct >= nearThreshold:
		return BudgetNear
	default:
		return BudgetOK
	}
}

// EvaluateBudgets reports progress for each budget against the month's
// expenses. Budgets keep their input order.
func EvaluateBudgets(budgets []Budget, expenses []Expense) []BudgetProgress {
	out := make([]BudgetProgress, 0, len(budgets))
	byMonth := make(map[string]map[string]decimal.Decimal)
	for _, b := range budgets {
		totals, ok := byMonth[b.Month]
		if !ok {
			totals = MonthlyExpenseTotals(b.Month, expenses)
			byMonth[b.Month] = totals
		}
		spent := totals[b.Category]
		pct := spentPercent(spent, b.Amount)
		display := int(math.Min(100, math.Round(pct)))
		out = append(out, BudgetProgress{
			Budget:  b,
			Spent:   spent,
			Percent: display,
			Status:  statusFor(pct),
		})
	}
	return out
}

// BudgetAlerts lists budgets at or past the warning threshold. Budgets with
// no positive amount never alert.
func BudgetAlerts(progress []BudgetProgress, currency string) []BudgetAlert {
	alerts := make([]BudgetAlert, 0)
	for _, p := range progress {
		if !p.Amount.IsPositive() {
			continue
		}
		pct := spentPercent(p.Spent, p.Amount)
		level := statusFor(pct)
		if level == BudgetOK {
			continue
		}
		amount, _ := p.Amount.Float64()
		formatted := FormatMoney(currency, amount)
		rounded := int(math.Round(pct))
		msg := fmt.Sprintf("Heads up! %s spending is at %d%% of your %s budget.", p.Category, rounded, formatted)
		if level == BudgetOver {
			msg = fmt.Sprintf("Alert! %s spending exceeded the %s budget.", p.Category, formatted)
		}
		alerts = append(alerts, BudgetAlert{
			BudgetID: p.ID,
			Category: p.Category,
			Level:    level,
			Percent:  rounded,
			Message:  msg,
		})
	}
	return alerts
}
