package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"medbill/internal/config"
	"medbill/internal/ledger"
)

const purchaseColumns = `p.id, p.invoice_number, p.invoice_date, p.supplier_id, s.name,
	p.subtotal, p.cgst_amount, p.sgst_amount, p.total_gst, p.grand_total,
	p.payment_status, p.paid_amount, p.notes, p.idempotency_key, p.created_at, p.updated_at`

type purchaseService struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// NewPurchaseService constructs a PurchaseService backed by PostgreSQL.
func NewPurchaseService(pool *pgxpool.Pool, logger *logrus.Logger) PurchaseService {
	return &purchaseService{pool: pool, logger: logger}
}

// validPurchase is a PurchaseInput with its dates parsed.
type validPurchase struct {
	PurchaseInput
	invoiceDate time.Time
	expiry      []time.Time
}

// validatePurchase checks the header and every line and reports all problems
// at once.
func validatePurchase(input PurchaseInput) (*validPurchase, error) {
	input.InvoiceNumber = strings.TrimSpace(input.InvoiceNumber)
	input.Items = append([]PurchaseItemInput(nil), input.Items...)
	v := &validPurchase{PurchaseInput: input, expiry: make([]time.Time, len(input.Items))}

	errs := checkStruct(0, input)
	errs = append(errs, checkAmount(0, "paid_amount", input.PaidAmount, true)...)
	if input.InvoiceDate != "" {
		d, dErr := parseDate(0, "invoice_date", input.InvoiceDate)
		errs = append(errs, dErr...)
		v.invoiceDate = d
	}

	for i, item := range input.Items {
		line := i + 1
		item.BatchNumber = strings.TrimSpace(item.BatchNumber)
		input.Items[i] = item

		errs = append(errs, checkStruct(line, item)...)
		if item.Quantity+item.FreeQuantity <= 0 {
			errs = append(errs, ValidationError{Line: line, Field: "quantity", Message: "quantity plus free quantity must be positive"})
		}
		errs = append(errs, checkAmount(line, "purchase_price", item.PurchasePrice, item.Quantity == 0)...)
		errs = append(errs, checkAmount(line, "mrp", item.MRP, false)...)
		errs = append(errs, checkAmount(line, "selling_price", item.SellingPrice, true)...)
		if item.GSTRate.Valid {
			if err := ledger.ValidateGSTRate(item.GSTRate.Decimal); err != nil {
				errs = append(errs, ValidationError{Line: line, Field: "gst_rate", Message: err.Error()})
			}
		}
		if item.ExpiryDate != "" {
			d, dErr := parseDate(line, "expiry_date", item.ExpiryDate)
			errs = append(errs, dErr...)
			v.expiry[i] = d
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	v.PurchaseInput = input
	return v, nil
}

const (
	purchaseIdempotencyConstraint = "purchases_idempotency_key_unique"
	purchaseInvoiceConstraint     = "purchases_invoice_unique"
)

type purchaseConflictKind int

const (
	conflictNone purchaseConflictKind = iota
	conflictIdempotencyKey
	conflictInvoiceNumber
)

// purchaseConflict tells which purchase header key a unique violation hit.
// Violations raised by line inserts report conflictNone.
func purchaseConflict(err error) purchaseConflictKind {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return conflictNone
	}
	switch constraint {
	case purchaseIdempotencyConstraint:
		return conflictIdempotencyKey
	case purchaseInvoiceConstraint:
		return conflictInvoiceNumber
	}
	return conflictNone
}

// SavePurchase records a supplier invoice and its stock in one transaction.
func (s *purchaseService) SavePurchase(ctx context.Context, input PurchaseInput) (*Purchase, error) {
	v, err := validatePurchase(input)
	if err != nil {
		return nil, err
	}
	v.IdempotencyKey = idempotencyKey(v.IdempotencyKey)

	if id, ok, err := findByIdempotencyKey(ctx, s.pool, "purchases", v.IdempotencyKey); err != nil {
		return nil, err
	} else if ok {
		s.logger.WithFields(logrus.Fields{"purchase_id": id, "idempotency_key": v.IdempotencyKey}).
			Info("purchase already saved, returning existing")
		return s.GetPurchase(ctx, id)
	}

	id, err := s.savePurchase(ctx, v)
	if err != nil {
		switch purchaseConflict(err) {
		case conflictIdempotencyKey:
			// A concurrent submission with the same key won the race.
			if existing, ok, lookupErr := findByIdempotencyKey(ctx, s.pool, "purchases", v.IdempotencyKey); lookupErr == nil && ok {
				return s.GetPurchase(ctx, existing)
			}
		case conflictInvoiceNumber:
			return nil, fmt.Errorf("invoice %s for supplier %d: %w", v.InvoiceNumber, v.SupplierID, ErrDuplicate)
		}
		config.LogError(s.logger, "purchase_service.go", "SavePurchase", "save purchase", v.InvoiceNumber, err)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"purchase_id": id, "invoice_number": v.InvoiceNumber, "lines": len(v.Items),
	}).Info("purchase saved")
	return s.GetPurchase(ctx, id)
}

func (s *purchaseService) savePurchase(ctx context.Context, v *validPurchase) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var supplierActive bool
	if err := tx.QueryRow(ctx, "SELECT is_active FROM suppliers WHERE id = $1", v.SupplierID).Scan(&supplierActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("supplier %d: %w", v.SupplierID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to load supplier: %w", err)
	}
	if !supplierActive {
		return 0, ValidationErrors{{Field: "supplier_id", Message: "supplier is inactive"}}
	}

	var purchaseID int
	err = tx.QueryRow(ctx, `
		INSERT INTO purchases (invoice_number, invoice_date, supplier_id, payment_status, paid_amount, notes, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, v.InvoiceNumber, v.invoiceDate, v.SupplierID, string(PaymentPending),
		ledger.RoundMoney(v.PaidAmount), toPtr(v.Notes), v.IdempotencyKey,
	).Scan(&purchaseID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert purchase header: %w", err)
	}

	splits := make([]ledger.GSTSplit, len(v.Items))
	for i, item := range v.Items {
		line := i + 1
		split, err := s.savePurchaseLine(ctx, tx, purchaseID, v.SupplierID, item, v.expiry[i], line)
		if err != nil {
			return 0, err
		}
		splits[i] = split
	}

	rounded := ledger.DocumentTotals(splits)
	status := v.PaymentStatus
	if status == "" {
		status = DerivePaymentStatus(v.PaidAmount, rounded.Total)
	}
	_, err = tx.Exec(ctx, `
		UPDATE purchases
		SET subtotal = $2, cgst_amount = $3, sgst_amount = $4, total_gst = $5, grand_total = $6,
		    payment_status = $7, updated_at = NOW()
		WHERE id = $1
	`, purchaseID, rounded.Net, rounded.CGST, rounded.SGST, rounded.TotalGST, rounded.Total, string(status))
	if err != nil {
		return 0, fmt.Errorf("failed to update purchase totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return purchaseID, nil
}

// savePurchaseLine lands one line in stock and records it. It returns the
// line's unrounded tax split.
func (s *purchaseService) savePurchaseLine(ctx context.Context, tx pgx.Tx, purchaseID, supplierID int,
	item PurchaseItemInput, expiry time.Time, line int) (ledger.GSTSplit, error) {

	var medicinePack int
	err := tx.QueryRow(ctx, "SELECT pack_size FROM medicines WHERE id = $1 AND is_active = true", item.MedicineID).Scan(&medicinePack)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.GSTSplit{}, lineErr(line, "load medicine", fmt.Errorf("medicine %d: %w", item.MedicineID, ErrNotFound))
		}
		return ledger.GSTSplit{}, lineErr(line, "load medicine", err)
	}
	packSize := item.TabletsPerStrip
	if packSize == 0 {
		packSize = medicinePack
	}

	batchLine := ledger.BatchLine{
		MedicineID:    item.MedicineID,
		BatchNumber:   item.BatchNumber,
		ExpiryDate:    expiry,
		Strips:        item.Quantity,
		FreeStrips:    item.FreeQuantity,
		PackSize:      packSize,
		PurchasePrice: item.PurchasePrice,
		MRP:           item.MRP,
		SellingPrice:  item.SellingPrice,
		GSTRate:       item.GSTRate,
		Rack:          strings.TrimSpace(item.Rack),
		Box:           strings.TrimSpace(item.Box),
		PurchaseID:    &purchaseID,
		SupplierID:    &supplierID,
	}

	existing, err := lockBatchByKey(ctx, tx, item.MedicineID, item.BatchNumber)
	if err != nil {
		return ledger.GSTSplit{}, lineErr(line, "lock batch", err)
	}
	action, err := ledger.ResolveBatch(existing, batchLine)
	if err != nil {
		return ledger.GSTSplit{}, lineErr(line, "resolve batch", err)
	}
	batchID, err := applyBatchAction(ctx, tx, action)
	if err != nil {
		return ledger.GSTSplit{}, lineErr(line, "apply batch", err)
	}

	rate := batchLine.Rate()
	split := ledger.PurchaseLineSplit(item.Quantity, item.PurchasePrice, rate)
	r := split.Rounded()
	_, err = tx.Exec(ctx, `
		INSERT INTO purchase_items (purchase_id, medicine_id, batch_id, batch_number, expiry_date,
		                            quantity, free_quantity, tablets_per_strip, total_pieces,
		                            purchase_price, mrp, selling_price, gst_rate,
		                            taxable_amount, cgst_amount, sgst_amount, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, purchaseID, item.MedicineID, batchID, item.BatchNumber, expiry,
		item.Quantity, item.FreeQuantity, ledger.NormalizePackSize(packSize), batchLine.Pieces(),
		item.PurchasePrice, item.MRP, item.SellingPrice, rate,
		r.Net, r.CGST, r.SGST, r.Total,
	)
	if err != nil {
		return ledger.GSTSplit{}, lineErr(line, "insert purchase item", err)
	}
	return split, nil
}

// applyBatchAction writes a resolved batch action and returns the batch ID.
// A create that loses a race to a concurrent insert of the same key turns
// into a merge through the unique key.
func applyBatchAction(ctx context.Context, tx pgx.Tx, action ledger.BatchAction) (int, error) {
	b := action.Batch
	switch action.Kind {
	case ledger.ActionIncrement:
		_, err := tx.Exec(ctx, `
			UPDATE batches
			SET quantity = quantity + $2, purchase_price = $3, mrp = $4, selling_price = $5,
			    tablets_per_strip = $6, rack = $7, box = $8, purchase_id = $9, supplier_id = $10,
			    is_active = true, updated_at = NOW()
			WHERE id = $1
		`, action.BatchID, action.AddPieces, b.PurchasePrice, b.MRP, b.SellingPrice,
			b.PackSize, b.Rack, b.Box, b.PurchaseID, b.SupplierID)
		if err != nil {
			return 0, fmt.Errorf("failed to increment batch %d: %w", action.BatchID, err)
		}
		return action.BatchID, nil

	case ledger.ActionCreate:
		var id int
		err := tx.QueryRow(ctx, `
			INSERT INTO batches (medicine_id, batch_number, expiry_date, purchase_price, mrp, selling_price,
			                     quantity, tablets_per_strip, gst_rate, rack, box, purchase_id, supplier_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (medicine_id, batch_number) DO UPDATE
			SET quantity = batches.quantity + EXCLUDED.quantity,
			    purchase_price = EXCLUDED.purchase_price,
			    mrp = EXCLUDED.mrp,
			    selling_price = EXCLUDED.selling_price,
			    tablets_per_strip = EXCLUDED.tablets_per_strip,
			    rack = COALESCE(NULLIF(EXCLUDED.rack, ''), batches.rack),
			    box = COALESCE(NULLIF(EXCLUDED.box, ''), batches.box),
			    purchase_id = EXCLUDED.purchase_id,
			    supplier_id = EXCLUDED.supplier_id,
			    is_active = true,
			    updated_at = NOW()
			RETURNING id
		`, b.MedicineID, b.BatchNumber, b.ExpiryDate, b.PurchasePrice, b.MRP, b.SellingPrice,
			action.AddPieces, b.PackSize, b.GSTRate, b.Rack, b.Box, b.PurchaseID, b.SupplierID,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to create batch %q: %w", b.BatchNumber, err)
		}
		return id, nil
	}
	return 0, fmt.Errorf("unknown batch action %q", action.Kind)
}

// UpdatePurchase edits header fields. Changing the paid amount without an
// explicit status re-derives the status.
func (s *purchaseService) UpdatePurchase(ctx context.Context, id int, update PurchaseHeaderUpdate) (*Purchase, error) {
	errs := checkStruct(0, update)
	if update.PaidAmount != nil {
		errs = append(errs, checkAmount(0, "paid_amount", *update.PaidAmount, true)...)
	}
	if update.InvoiceNumber != nil && strings.TrimSpace(*update.InvoiceNumber) == "" {
		errs = append(errs, ValidationError{Field: "invoice_number", Message: "is required"})
	}
	var invoiceDate *time.Time
	if update.InvoiceDate != nil {
		d, dErr := parseDate(0, "invoice_date", *update.InvoiceDate)
		errs = append(errs, dErr...)
		invoiceDate = &d
	}
	if len(errs) > 0 {
		return nil, errs
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var grandTotal, paid decimal.Decimal
	var status PaymentStatus
	err = tx.QueryRow(ctx,
		"SELECT grand_total, paid_amount, payment_status FROM purchases WHERE id = $1 FOR UPDATE", id,
	).Scan(&grandTotal, &paid, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock purchase %d: %w", id, err)
	}

	if update.PaidAmount != nil {
		paid = ledger.RoundMoney(*update.PaidAmount)
		status = DerivePaymentStatus(paid, grandTotal)
	}
	if update.PaymentStatus != nil {
		status = *update.PaymentStatus
	}

	var invoiceNumber *string
	if update.InvoiceNumber != nil {
		n := strings.TrimSpace(*update.InvoiceNumber)
		invoiceNumber = &n
	}

	_, err = tx.Exec(ctx, `
		UPDATE purchases
		SET invoice_number = COALESCE($2, invoice_number),
		    invoice_date = COALESCE($3, invoice_date),
		    notes = CASE WHEN $4::boolean THEN $5 ELSE notes END,
		    paid_amount = $6,
		    payment_status = $7,
		    updated_at = NOW()
		WHERE id = $1
	`, id, invoiceNumber, invoiceDate, update.Notes != nil, toPtr(deref(update.Notes)), paid, string(status))
	if err != nil {
		if purchaseConflict(err) == conflictInvoiceNumber {
			return nil, fmt.Errorf("invoice %s: %w", deref(invoiceNumber), ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update purchase %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.GetPurchase(ctx, id)
}

func scanPurchase(row pgx.Row) (*Purchase, error) {
	p := &Purchase{}
	err := row.Scan(
		&p.ID, &p.InvoiceNumber, &p.InvoiceDate, &p.SupplierID, &p.SupplierName,
		&p.Subtotal, &p.CGSTAmount, &p.SGSTAmount, &p.TotalGST, &p.GrandTotal,
		&p.PaymentStatus, &p.PaidAmount, &p.Notes, &p.IdempotencyKey, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// GetPurchase returns a purchase and its lines in entry order.
func (s *purchaseService) GetPurchase(ctx context.Context, id int) (*Purchase, error) {
	p, err := scanPurchase(s.pool.QueryRow(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases p
		JOIN suppliers s ON s.id = p.supplier_id
		WHERE p.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get purchase %d: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT pi.id, pi.purchase_id, pi.medicine_id, m.name, pi.batch_id, pi.batch_number, pi.expiry_date,
		       pi.quantity, pi.free_quantity, pi.tablets_per_strip, pi.total_pieces,
		       pi.purchase_price, pi.mrp, pi.selling_price, pi.gst_rate,
		       pi.taxable_amount, pi.cgst_amount, pi.sgst_amount, pi.total_amount
		FROM purchase_items pi
		JOIN medicines m ON m.id = pi.medicine_id
		WHERE pi.purchase_id = $1
		ORDER BY pi.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get purchase %d items: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(
			&it.ID, &it.PurchaseID, &it.MedicineID, &it.MedicineName, &it.BatchID, &it.BatchNumber, &it.ExpiryDate,
			&it.Quantity, &it.FreeQuantity, &it.TabletsPerStrip, &it.TotalPieces,
			&it.PurchasePrice, &it.MRP, &it.SellingPrice, &it.GSTRate,
			&it.TaxableAmount, &it.CGSTAmount, &it.SGSTAmount, &it.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan purchase item: %w", err)
		}
		p.Items = append(p.Items, it)
	}
	return p, rows.Err()
}

// ListPurchases returns purchase headers without lines.
func (s *purchaseService) ListPurchases(ctx context.Context, filter PurchaseFilter) ([]Purchase, error) {
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases p
		JOIN suppliers s ON s.id = p.supplier_id
		WHERE ($1 = 0 OR p.supplier_id = $1)
		  AND ($2 = '' OR p.invoice_number ILIKE $3)
		ORDER BY p.invoice_date DESC, p.id DESC
		LIMIT $4 OFFSET $5
	`, filter.SupplierID, strings.TrimSpace(filter.Search), likePattern(filter.Search), clampLimit(filter.Limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}
