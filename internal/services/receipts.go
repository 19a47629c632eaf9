package services

import (
	"context"
	"fmt"
	"log/slog"

	"payflow/internal/core"
)

// ReceiptRequest is a receipt as submitted by a client.
type ReceiptRequest struct {
	Title string          `json:"title"`
	Date  string          `json:"date"`
	Note  string          `json:"note"`
	Items []core.LineItem `json:"items"`
}

type ReceiptService struct {
	store ReceiptStore
}

func NewReceiptService(store ReceiptStore) *ReceiptService {
	return &ReceiptService{store: store}
}

// Create validates the items, totals them and stores the receipt.
func (s *ReceiptService) Create(ctx context.Context, req ReceiptRequest) (core.Receipt, error) {
	rc, err := core.NewReceipt(req.Title, req.Date, req.Note, req.Items)
	if err != nil {
		return core.Receipt{}, err
	}
	saved, err := s.store.CreateReceipt(ctx, rc)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("save receipt: %w", err)
	}
	slog.InfoContext(ctx, "Receipt created",
		"id", saved.ID,
		"items", len(saved.Items),
		"grand_total", saved.GrandTotal)
	return saved, nil
}

func (s *ReceiptService) Get(ctx context.Context, id int64) (core.Receipt, error) {
	return s.store.GetReceipt(ctx, id)
}

func (s *ReceiptService) List(ctx context.Context) ([]core.Receipt, error) {
	return s.store.ListReceipts(ctx)
}

func (s *ReceiptService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteReceipt(ctx, id)
}
