package http

import (
	"bytes"
	"fmt"
	"net/http"

	"payflow/internal/core"
	"payflow/internal/export"
	"payflow/internal/services"
)

type receiptRequest struct {
	Title string               `json:"title" validate:"max=200"`
	Date  string               `json:"date"`
	Note  string               `json:"note" validate:"max=500"`
	Items []receiptItemRequest `json:"items" validate:"dive"`
}

// receiptItemRequest keeps quantity optional so an absent value can
// default to one.
type receiptItemRequest struct {
	Date        string   `json:"date"`
	Category    string   `json:"category" validate:"max=100"`
	Description string   `json:"description" validate:"max=200"`
	Quantity    *float64 `json:"quantity" validate:"omitempty,gt=0"`
	UnitPrice   float64  `json:"unit_price" validate:"gte=0"`
	TaxRate     float64  `json:"tax_rate" validate:"gte=0"`
}

func (req receiptRequest) toService() services.ReceiptRequest {
	out := services.ReceiptRequest{
		Title: req.Title,
		Date:  req.Date,
		Note:  req.Note,
		Items: make([]core.LineItem, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		qty := 1.0
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		out.Items = append(out.Items, core.LineItem{
			Date:        it.Date,
			Category:    it.Category,
			Description: it.Description,
			Quantity:    qty,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		})
	}
	return out
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.svc.Receipts.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rc, err := s.svc.Receipts.Create(r.Context(), req.toService())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rc)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rc, err := s.svc.Receipts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Receipts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w)
}

func (s *Server) handleReceiptPDF(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rc, err := s.svc.Receipts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteReceiptPDF(&buf, rc); err != nil {
		writeError(w, r, fmt.Errorf("render receipt pdf: %w", err))
		return
	}
	writeAttachment(w, contentTypePDF, fmt.Sprintf("receipt_%d.pdf", rc.ID), buf.Bytes())
}
