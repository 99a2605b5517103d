package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medbill/internal/ledger"
)

const batchColumns = `b.id, b.medicine_id, b.batch_number, b.expiry_date, b.purchase_price, b.mrp,
	b.selling_price, b.quantity, b.tablets_per_strip, b.gst_rate, b.rack, b.box,
	b.purchase_id, b.supplier_id, b.is_active`

type inventoryService struct {
	pool *pgxpool.Pool
}

// NewInventoryService constructs an InventoryService backed by PostgreSQL.
func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

// batchDest lists scan targets matching batchColumns.
func batchDest(b *ledger.Batch) []any {
	return []any{
		&b.ID, &b.MedicineID, &b.BatchNumber, &b.ExpiryDate, &b.PurchasePrice, &b.MRP,
		&b.SellingPrice, &b.Quantity, &b.PackSize, &b.GSTRate, &b.Rack, &b.Box,
		&b.PurchaseID, &b.SupplierID, &b.IsActive,
	}
}

func scanBatchStock(row pgx.Row) (*BatchStock, error) {
	bs := &BatchStock{}
	dest := append(batchDest(&bs.Batch), &bs.MedicineName, &bs.CreatedAt, &bs.UpdatedAt)
	return bs, row.Scan(dest...)
}

// lockBatchByKey loads and row-locks the batch stored under (medicineID,
// batchNumber). It returns nil when no such batch exists.
func lockBatchByKey(ctx context.Context, tx pgx.Tx, medicineID int, batchNumber string) (*ledger.Batch, error) {
	b := &ledger.Batch{}
	err := tx.QueryRow(ctx, `
		SELECT `+batchColumns+`
		FROM batches b
		WHERE b.medicine_id = $1 AND b.batch_number = $2
		FOR UPDATE
	`, medicineID, batchNumber).Scan(batchDest(b)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock batch %q: %w", batchNumber, err)
	}
	return b, nil
}

// lockBatchByID loads and row-locks a batch by primary key.
func lockBatchByID(ctx context.Context, tx pgx.Tx, id int) (*ledger.Batch, error) {
	b := &ledger.Batch{}
	err := tx.QueryRow(ctx, `
		SELECT `+batchColumns+`
		FROM batches b
		WHERE b.id = $1
		FOR UPDATE
	`, id).Scan(batchDest(b)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("batch %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock batch %d: %w", id, err)
	}
	return b, nil
}

// adjustBatchQuantity applies delta pieces to a locked batch. The quantity
// CHECK constraint backs up the caller's own on-hand check.
func adjustBatchQuantity(ctx context.Context, tx pgx.Tx, id int, delta int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE batches SET quantity = quantity + $2, updated_at = NOW() WHERE id = $1
	`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust batch %d by %d: %w", id, delta, err)
	}
	return nil
}

func (s *inventoryService) GetBatch(ctx context.Context, id int) (*BatchStock, error) {
	bs, err := scanBatchStock(s.pool.QueryRow(ctx, `
		SELECT `+batchColumns+`, m.name, b.created_at, b.updated_at
		FROM batches b
		JOIN medicines m ON m.id = b.medicine_id
		WHERE b.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("batch %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get batch %d: %w", id, err)
	}
	return bs, nil
}

func (s *inventoryService) ListBatches(ctx context.Context, medicineID int, includeEmpty bool) ([]BatchStock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+batchColumns+`, m.name, b.created_at, b.updated_at
		FROM batches b
		JOIN medicines m ON m.id = b.medicine_id
		WHERE b.medicine_id = $1
		  AND b.is_active = true
		  AND ($2 OR b.quantity > 0)
		ORDER BY b.expiry_date, b.batch_number
	`, medicineID, includeEmpty)
	if err != nil {
		return nil, fmt.Errorf("list batches for medicine %d: %w", medicineID, err)
	}
	return collectBatchStock(rows)
}

func (s *inventoryService) ExpiringBatches(ctx context.Context, before time.Time) ([]BatchStock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+batchColumns+`, m.name, b.created_at, b.updated_at
		FROM batches b
		JOIN medicines m ON m.id = b.medicine_id
		WHERE b.is_active = true
		  AND b.quantity > 0
		  AND b.expiry_date < $1
		ORDER BY b.expiry_date, m.name, b.batch_number
	`, before)
	if err != nil {
		return nil, fmt.Errorf("list expiring batches: %w", err)
	}
	return collectBatchStock(rows)
}

func collectBatchStock(rows pgx.Rows) ([]BatchStock, error) {
	defer rows.Close()
	var out []BatchStock
	for rows.Next() {
		bs, err := scanBatchStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		out = append(out, *bs)
	}
	return out, rows.Err()
}

func (s *inventoryService) SearchStock(ctx context.Context, query string, limit int) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.name, m.generic_name, m.manufacturer, m.pack_size, m.reorder_level,
		       COALESCE(SUM(b.quantity), 0)::BIGINT,
		       COUNT(b.id),
		       MIN(b.expiry_date)
		FROM medicines m
		LEFT JOIN batches b
		       ON b.medicine_id = m.id AND b.is_active = true AND b.quantity > 0
		WHERE m.is_active = true
		  AND ($1 = '' OR m.name ILIKE $2 OR m.generic_name ILIKE $2)
		GROUP BY m.id
		ORDER BY m.name
		LIMIT $3
	`, query, likePattern(query), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("search stock: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(
			&sl.MedicineID, &sl.MedicineName, &sl.GenericName, &sl.Manufacturer,
			&sl.PackSize, &sl.ReorderLevel, &sl.Pieces, &sl.BatchCount, &sl.NearestExpiry,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		sl.fillStrips()
		levels = append(levels, sl)
	}
	return levels, rows.Err()
}

// fillStrips derives the strip breakdown and reorder flag from Pieces.
func (sl *StockLevel) fillStrips() {
	pack := int64(ledger.NormalizePackSize(sl.PackSize))
	sl.Strips = sl.Pieces / pack
	sl.LoosePieces = sl.Pieces % pack
	sl.BelowReorder = sl.Strips < int64(sl.ReorderLevel)
}
