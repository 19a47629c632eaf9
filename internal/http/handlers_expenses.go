package http

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"payflow/internal/core"
)

type expenseRequest struct {
	Date        string          `json:"date" validate:"required"`
	Category    string          `json:"category" validate:"max=100"`
	Description string          `json:"description" validate:"max=200"`
	Amount      json.RawMessage `json:"amount" validate:"required"`
}

type budgetRequest struct {
	Month    string          `json:"month"`
	Category string          `json:"category" validate:"required,max=100"`
	Amount   json.RawMessage `json:"amount"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.Expenses.List(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := core.AmountFromJSON(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.svc.Expenses.Create(r.Context(), core.Expense{
		Date:        date,
		Category:    req.Category,
		Description: req.Description,
		Amount:      amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Expenses.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.svc.Budgets.List(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

// handleSaveBudget upserts the budget for (month, category). A missing
// amount saves a zero budget.
func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount := decimal.Zero
	if len(req.Amount) > 0 && string(req.Amount) != "null" {
		var err error
		if amount, err = core.AmountFromJSON(req.Amount); err != nil {
			writeError(w, r, err)
			return
		}
	}
	b, err := s.svc.Budgets.Save(r.Context(), core.Budget{
		Month:    req.Month,
		Category: req.Category,
		Amount:   amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.svc.Budgets.Progress(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	alerts, err := s.svc.Budgets.Alerts(r.Context(), q.Get("month"), q.Get("currency"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}
