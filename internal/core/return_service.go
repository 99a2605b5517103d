package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"medbill/internal/config"
	"medbill/internal/ledger"
)

type returnService struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
	now    func() time.Time
}

// NewReturnService constructs a ReturnService backed by PostgreSQL.
func NewReturnService(pool *pgxpool.Pool, logger *logrus.Logger) ReturnService {
	return &returnService{pool: pool, logger: logger, now: time.Now}
}

// returnDate parses an optional YYYY-MM-DD date, defaulting to today.
func (s *returnService) returnDate(value string) (time.Time, ValidationErrors) {
	if value == "" {
		return s.now(), nil
	}
	return parseDate(0, "return_date", value)
}

// ── Sales returns ─────────────────────────────────────────────────────────────

func (s *returnService) ProcessSalesReturn(ctx context.Context, input SalesReturnInput) (*SalesReturn, error) {
	errs := checkStruct(0, input)
	date, dErr := s.returnDate(input.ReturnDate)
	errs = append(errs, dErr...)
	for i, item := range input.Items {
		errs = append(errs, checkStruct(i+1, item)...)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	input.IdempotencyKey = idempotencyKey(input.IdempotencyKey)

	if id, ok, err := findByIdempotencyKey(ctx, s.pool, "sales_returns", input.IdempotencyKey); err != nil {
		return nil, err
	} else if ok {
		return s.GetSalesReturn(ctx, id)
	}

	id, err := s.processSalesReturn(ctx, input, date)
	if err != nil {
		if isUniqueViolation(err) {
			if existing, ok, lookupErr := findByIdempotencyKey(ctx, s.pool, "sales_returns", input.IdempotencyKey); lookupErr == nil && ok {
				return s.GetSalesReturn(ctx, existing)
			}
		}
		config.LogError(s.logger, "return_service.go", "ProcessSalesReturn", "process sales return", input.BillID, err)
		return nil, err
	}
	return s.GetSalesReturn(ctx, id)
}

type salesReturnLine struct {
	billItemID int
	batchID    int
	medicineID int
	src        ledger.SalesReturnLine
	reversal   ledger.Reversal
}

func (s *returnService) processSalesReturn(ctx context.Context, input SalesReturnInput, date time.Time) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var billNumber string
	if err := tx.QueryRow(ctx, "SELECT bill_number FROM bills WHERE id = $1", input.BillID).Scan(&billNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("bill %d: %w", input.BillID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to load bill %d: %w", input.BillID, err)
	}

	lines := make([]salesReturnLine, len(input.Items))
	var reversals []ledger.Reversal
	for i, item := range input.Items {
		line := i + 1
		l := salesReturnLine{billItemID: item.BillItemID}
		var billID int
		err := tx.QueryRow(ctx, `
			SELECT bill_id, batch_id, medicine_id, quantity, returned_quantity,
			       tablets_per_strip, mrp, selling_price, gst_rate
			FROM bill_items
			WHERE id = $1
			FOR UPDATE
		`, item.BillItemID).Scan(
			&billID, &l.batchID, &l.medicineID, &l.src.SoldPieces, &l.src.ReturnedPieces,
			&l.src.PackSize, &l.src.MRP, &l.src.SellingPrice, &l.src.GSTRate,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, lineErr(line, "lock bill item", fmt.Errorf("bill item %d: %w", item.BillItemID, ErrNotFound))
			}
			return 0, lineErr(line, "lock bill item", err)
		}
		if billID != input.BillID {
			return 0, lineErr(line, "lock bill item",
				fmt.Errorf("bill item %d on bill %d: %w", item.BillItemID, input.BillID, ErrNotFound))
		}

		l.src.ReturnPieces = item.Quantity
		l.reversal, err = ledger.SalesReturn(l.src)
		if err != nil {
			return 0, lineErr(line, "compute reversal", err)
		}

		if _, err := lockBatchByID(ctx, tx, l.batchID); err != nil {
			return 0, lineErr(line, "lock batch", err)
		}
		if err := adjustBatchQuantity(ctx, tx, l.batchID, l.reversal.StockDelta); err != nil {
			return 0, lineErr(line, "restock batch", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE bill_items SET returned_quantity = returned_quantity + $2 WHERE id = $1
		`, item.BillItemID, l.reversal.Pieces)
		if err != nil {
			return 0, lineErr(line, "mark returned", err)
		}

		lines[i] = l
		reversals = append(reversals, l.reversal)
	}

	number, err := nextDocumentNumber(ctx, tx, ledger.SalesReturnPrefix, date)
	if err != nil {
		return 0, err
	}

	totals := ledger.SumReversals(reversals)
	var returnID int
	err = tx.QueryRow(ctx, `
		INSERT INTO sales_returns (return_number, return_date, bill_id, reason,
		                           subtotal, cgst_amount, sgst_amount, total_gst, total_amount,
		                           status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, number, date, input.BillID, toPtr(strings.TrimSpace(input.Reason)),
		totals.Net, totals.CGST, totals.SGST, totals.TotalGST, totals.Total,
		ReturnStatusCompleted, input.IdempotencyKey,
	).Scan(&returnID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sales return: %w", err)
	}

	for i, l := range lines {
		g := l.reversal.GST.Rounded()
		_, err := tx.Exec(ctx, `
			INSERT INTO sales_return_items (sales_return_id, bill_item_id, batch_id, medicine_id, quantity,
			                                price_per_piece, gst_rate, amount, cgst_amount, sgst_amount, total_gst)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, returnID, l.billItemID, l.batchID, l.medicineID, l.reversal.Pieces,
			l.reversal.UnitPrice.Round(4), l.src.GSTRate, g.Total, g.CGST, g.SGST, g.TotalGST)
		if err != nil {
			return 0, lineErr(i+1, "insert return item", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"return_id": returnID, "return_number": number, "bill_number": billNumber, "amount": totals.Total.String(),
	}).Info("sales return processed")
	return returnID, nil
}

const salesReturnColumns = `r.id, r.return_number, r.return_date, r.bill_id, b.bill_number, r.reason,
	r.subtotal, r.cgst_amount, r.sgst_amount, r.total_gst, r.total_amount, r.status, r.idempotency_key, r.created_at`

func scanSalesReturn(row pgx.Row) (*SalesReturn, error) {
	r := &SalesReturn{}
	err := row.Scan(
		&r.ID, &r.ReturnNumber, &r.ReturnDate, &r.BillID, &r.BillNumber, &r.Reason,
		&r.Subtotal, &r.CGSTAmount, &r.SGSTAmount, &r.TotalGST, &r.TotalAmount, &r.Status, &r.IdempotencyKey, &r.CreatedAt,
	)
	return r, err
}

func (s *returnService) GetSalesReturn(ctx context.Context, id int) (*SalesReturn, error) {
	r, err := scanSalesReturn(s.pool.QueryRow(ctx, `
		SELECT `+salesReturnColumns+`
		FROM sales_returns r
		JOIN bills b ON b.id = r.bill_id
		WHERE r.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sales return %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get sales return %d: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.sales_return_id, i.bill_item_id, i.batch_id, i.medicine_id, m.name, bt.batch_number,
		       i.quantity, i.price_per_piece, i.gst_rate, i.amount, i.cgst_amount, i.sgst_amount, i.total_gst
		FROM sales_return_items i
		JOIN medicines m ON m.id = i.medicine_id
		JOIN batches bt ON bt.id = i.batch_id
		WHERE i.sales_return_id = $1
		ORDER BY i.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get sales return %d items: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it SalesReturnItem
		if err := rows.Scan(
			&it.ID, &it.SalesReturnID, &it.BillItemID, &it.BatchID, &it.MedicineID, &it.MedicineName, &it.BatchNumber,
			&it.Quantity, &it.PricePerPiece, &it.GSTRate, &it.Amount, &it.CGSTAmount, &it.SGSTAmount, &it.TotalGST,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sales return item: %w", err)
		}
		r.Items = append(r.Items, it)
	}
	return r, rows.Err()
}

func (s *returnService) ListSalesReturns(ctx context.Context, filter ReturnFilter) ([]SalesReturn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+salesReturnColumns+`
		FROM sales_returns r
		JOIN bills b ON b.id = r.bill_id
		WHERE ($1 = 0 OR r.bill_id = $1)
		  AND ($2 = '' OR r.return_number ILIKE $3)
		ORDER BY r.return_date DESC, r.id DESC
		LIMIT $4 OFFSET $5
	`, filter.PartyID, strings.TrimSpace(filter.Search), likePattern(filter.Search), clampLimit(filter.Limit), max(filter.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list sales returns: %w", err)
	}
	defer rows.Close()

	var out []SalesReturn
	for rows.Next() {
		r, err := scanSalesReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales return: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ── Supplier returns ──────────────────────────────────────────────────────────

func (s *returnService) ProcessSupplierReturn(ctx context.Context, input SupplierReturnInput) (*SupplierReturn, error) {
	errs := checkStruct(0, input)
	date, dErr := s.returnDate(input.ReturnDate)
	errs = append(errs, dErr...)
	for i, item := range input.Items {
		errs = append(errs, checkStruct(i+1, item)...)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	input.IdempotencyKey = idempotencyKey(input.IdempotencyKey)

	if id, ok, err := findByIdempotencyKey(ctx, s.pool, "purchase_returns", input.IdempotencyKey); err != nil {
		return nil, err
	} else if ok {
		return s.GetSupplierReturn(ctx, id)
	}

	id, err := s.processSupplierReturn(ctx, input, date)
	if err != nil {
		if isUniqueViolation(err) {
			if existing, ok, lookupErr := findByIdempotencyKey(ctx, s.pool, "purchase_returns", input.IdempotencyKey); lookupErr == nil && ok {
				return s.GetSupplierReturn(ctx, existing)
			}
		}
		config.LogError(s.logger, "return_service.go", "ProcessSupplierReturn", "process supplier return", input.SupplierID, err)
		return nil, err
	}
	return s.GetSupplierReturn(ctx, id)
}

type supplierReturnLine struct {
	batch    ledger.Batch
	reversal ledger.Reversal
}

func (s *returnService) processSupplierReturn(ctx context.Context, input SupplierReturnInput, date time.Time) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var supplierName string
	var supplierActive bool
	err = tx.QueryRow(ctx, "SELECT name, is_active FROM suppliers WHERE id = $1", input.SupplierID).
		Scan(&supplierName, &supplierActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("supplier %d: %w", input.SupplierID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to load supplier %d: %w", input.SupplierID, err)
	}
	if !supplierActive {
		return 0, ValidationErrors{{Field: "supplier_id", Message: "supplier is inactive"}}
	}

	lines := make([]supplierReturnLine, len(input.Items))
	var reversals []ledger.Reversal
	for i, item := range input.Items {
		line := i + 1
		b, err := lockBatchByID(ctx, tx, item.BatchID)
		if err != nil {
			return 0, lineErr(line, "lock batch", err)
		}
		// A batch goes back to the supplier that last stocked it.
		if b.SupplierID != nil && *b.SupplierID != input.SupplierID {
			return 0, ValidationErrors{{
				Line:    line,
				Field:   "batch_id",
				Message: fmt.Sprintf("batch %d was supplied by supplier %d", b.ID, *b.SupplierID),
			}}
		}
		rev, err := ledger.SupplierReturn(ledger.SupplierReturnLine{
			MRP:      b.MRP,
			GSTRate:  b.GSTRate,
			OnHand:   b.Quantity,
			Quantity: item.Quantity,
		})
		if err != nil {
			return 0, lineErr(line, "compute reversal", err)
		}
		if err := adjustBatchQuantity(ctx, tx, b.ID, rev.StockDelta); err != nil {
			return 0, lineErr(line, "destock batch", err)
		}
		lines[i] = supplierReturnLine{batch: *b, reversal: rev}
		reversals = append(reversals, rev)
	}

	number, err := nextDocumentNumber(ctx, tx, ledger.SupplierReturnPrefix, date)
	if err != nil {
		return 0, err
	}

	totals := ledger.SumReversals(reversals)
	var returnID int
	err = tx.QueryRow(ctx, `
		INSERT INTO purchase_returns (return_number, return_date, supplier_id, reason,
		                              subtotal, cgst_amount, sgst_amount, total_gst, total_amount,
		                              status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, number, date, input.SupplierID, toPtr(strings.TrimSpace(input.Reason)),
		totals.Net, totals.CGST, totals.SGST, totals.TotalGST, totals.Total,
		ReturnStatusCompleted, input.IdempotencyKey,
	).Scan(&returnID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert supplier return: %w", err)
	}

	for i, l := range lines {
		g := l.reversal.GST.Rounded()
		_, err := tx.Exec(ctx, `
			INSERT INTO purchase_return_items (purchase_return_id, batch_id, medicine_id, quantity,
			                                   unit_price, gst_rate, amount, cgst_amount, sgst_amount, total_gst)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, returnID, l.batch.ID, l.batch.MedicineID, l.reversal.Pieces,
			l.reversal.UnitPrice, l.batch.GSTRate, g.Total, g.CGST, g.SGST, g.TotalGST)
		if err != nil {
			return 0, lineErr(i+1, "insert return item", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"return_id": returnID, "return_number": number, "supplier": supplierName, "amount": totals.Total.String(),
	}).Info("supplier return processed")
	return returnID, nil
}

const supplierReturnColumns = `r.id, r.return_number, r.return_date, r.supplier_id, s.name, r.reason,
	r.subtotal, r.cgst_amount, r.sgst_amount, r.total_gst, r.total_amount, r.status, r.idempotency_key, r.created_at`

func scanSupplierReturn(row pgx.Row) (*SupplierReturn, error) {
	r := &SupplierReturn{}
	err := row.Scan(
		&r.ID, &r.ReturnNumber, &r.ReturnDate, &r.SupplierID, &r.SupplierName, &r.Reason,
		&r.Subtotal, &r.CGSTAmount, &r.SGSTAmount, &r.TotalGST, &r.TotalAmount, &r.Status, &r.IdempotencyKey, &r.CreatedAt,
	)
	return r, err
}

func (s *returnService) GetSupplierReturn(ctx context.Context, id int) (*SupplierReturn, error) {
	r, err := scanSupplierReturn(s.pool.QueryRow(ctx, `
		SELECT `+supplierReturnColumns+`
		FROM purchase_returns r
		JOIN suppliers s ON s.id = r.supplier_id
		WHERE r.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier return %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get supplier return %d: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.purchase_return_id, i.batch_id, i.medicine_id, m.name, bt.batch_number,
		       i.quantity, i.unit_price, i.gst_rate, i.amount, i.cgst_amount, i.sgst_amount, i.total_gst
		FROM purchase_return_items i
		JOIN medicines m ON m.id = i.medicine_id
		JOIN batches bt ON bt.id = i.batch_id
		WHERE i.purchase_return_id = $1
		ORDER BY i.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get supplier return %d items: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it SupplierReturnItem
		if err := rows.Scan(
			&it.ID, &it.SupplierReturnID, &it.BatchID, &it.MedicineID, &it.MedicineName, &it.BatchNumber,
			&it.Quantity, &it.UnitPrice, &it.GSTRate, &it.Amount, &it.CGSTAmount, &it.SGSTAmount, &it.TotalGST,
		); err != nil {
			return nil, fmt.Errorf("failed to scan supplier return item: %w", err)
		}
		r.Items = append(r.Items, it)
	}
	return r, rows.Err()
}

func (s *returnService) ListSupplierReturns(ctx context.Context, filter ReturnFilter) ([]SupplierReturn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+supplierReturnColumns+`
		FROM purchase_returns r
		JOIN suppliers s ON s.id = r.supplier_id
		WHERE ($1 = 0 OR r.supplier_id = $1)
		  AND ($2 = '' OR r.return_number ILIKE $3)
		ORDER BY r.return_date DESC, r.id DESC
		LIMIT $4 OFFSET $5
	`, filter.PartyID, strings.TrimSpace(filter.Search), likePattern(filter.Search), clampLimit(filter.Limit), max(filter.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list supplier returns: %w", err)
	}
	defer rows.Close()

	var out []SupplierReturn
	for rows.Next() {
		r, err := scanSupplierReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier return: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
