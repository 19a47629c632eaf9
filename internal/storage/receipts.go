package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"payflow/internal/core"
)

const receiptColumns = `id, title, date, note, subtotal, tax_total, grand_total, created_at`

// CreateReceipt stores a receipt and its items in one transaction.
func (r *SQLiteRepository) CreateReceipt(ctx context.Context, rc core.Receipt) (core.Receipt, error) {
	created := r.timestamp()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO receipts (title, date, note, subtotal, tax_total, grand_total, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rc.Title, rc.Date, rc.Note, rc.Subtotal, rc.TaxTotal, rc.GrandTotal, created)
		if err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}
		if rc.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("receipt id: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO receipt_items
			(receipt_id, position, date, category, description, quantity, unit_price, tax_rate, line_total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare receipt item: %w", err)
		}
		defer stmt.Close()

		for i := range rc.Items {
			it := &rc.Items[i]
			res, err := stmt.ExecContext(ctx, rc.ID, it.Position, it.Date, it.Category, it.Description,
				it.Quantity, it.UnitPrice, it.TaxRate, it.LineTotal)
			if err != nil {
				return fmt.Errorf("create receipt item %d: %w", it.Position, err)
			}
			if it.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("receipt item id: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Receipt{}, err
	}
	rc.CreatedAt = parseTimestamp(created)

	slog.InfoContext(ctx, "Receipt saved to SQLite",
		"id", rc.ID,
		"items", len(rc.Items),
		"grand_total", rc.GrandTotal)
	return rc, nil
}

func scanReceipt(row interface{ Scan(...any) error }) (core.Receipt, error) {
	var (
		rc      core.Receipt
		created string
	)
	if err := row.Scan(&rc.ID, &rc.Title, &rc.Date, &rc.Note, &rc.Subtotal, &rc.TaxTotal, &rc.GrandTotal, &created); err != nil {
		return core.Receipt{}, err
	}
	rc.CreatedAt = parseTimestamp(created)
	rc.Items = make([]core.ReceiptItem, 0)
	return rc, nil
}

func (r *SQLiteRepository) GetReceipt(ctx context.Context, id int64) (core.Receipt, error) {
	rc, err := scanReceipt(r.db.QueryRowContext(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, ErrNotFound
	}
	if err != nil {
		return core.Receipt{}, fmt.Errorf("get receipt %d: %w", id, err)
	}
	items, err := r.receiptItems(ctx, []int64{id})
	if err != nil {
		return core.Receipt{}, err
	}
	rc.Items = append(rc.Items, items[id]...)
	return rc, nil
}

// ListReceipts returns receipts newest first with their items.
func (r *SQLiteRepository) ListReceipts(ctx context.Context) ([]core.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+receiptColumns+` FROM receipts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	receipts := make([]core.Receipt, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, rc)
		ids = append(ids, rc.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	items, err := r.receiptItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range receipts {
		receipts[i].Items = append(receipts[i].Items, items[receipts[i].ID]...)
	}
	return receipts, nil
}

func (r *SQLiteRepository) receiptItems(ctx context.Context, ids []int64) (map[int64][]core.ReceiptItem, error) {
	out := make(map[int64][]core.ReceiptItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, receipt_id, position, date, category, description,
		quantity, unit_price, tax_rate, line_total
		FROM receipt_items WHERE receipt_id IN (`+string(placeholders)+`)
		ORDER BY receipt_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("list receipt items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it        core.ReceiptItem
			receiptID int64
		)
		if err := rows.Scan(&it.ID, &receiptID, &it.Position, &it.Date, &it.Category, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.TaxRate, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan receipt item: %w", err)
		}
		out[receiptID] = append(out[receiptID], it)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteReceipt(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM receipt_items WHERE receipt_id = ?`, id); err != nil {
			return fmt.Errorf("delete receipt items: %w", err)
		}
		return deleteByID(ctx, tx, "receipts", id)
	})
}
