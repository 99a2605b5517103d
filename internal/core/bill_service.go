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

type billService struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
	now    func() time.Time
}

// NewBillService constructs a BillService backed by PostgreSQL.
func NewBillService(pool *pgxpool.Pool, logger *logrus.Logger) BillService {
	return &billService{pool: pool, logger: logger, now: time.Now}
}

func (s *billService) CreateBill(ctx context.Context, input BillInput) (*Bill, error) {
	errs := checkStruct(0, input)
	billDate := s.now()
	if input.BillDate != "" {
		d, dErr := parseDate(0, "bill_date", input.BillDate)
		errs = append(errs, dErr...)
		billDate = d
	}
	for i, item := range input.Items {
		errs = append(errs, checkStruct(i+1, item)...)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if input.PaymentMode == "" {
		input.PaymentMode = PaymentCash
	}
	input.IdempotencyKey = idempotencyKey(input.IdempotencyKey)

	if id, ok, err := findByIdempotencyKey(ctx, s.pool, "bills", input.IdempotencyKey); err != nil {
		return nil, err
	} else if ok {
		return s.GetBill(ctx, id)
	}

	id, err := s.createBill(ctx, input, billDate)
	if err != nil {
		if isUniqueViolation(err) {
			if existing, ok, lookupErr := findByIdempotencyKey(ctx, s.pool, "bills", input.IdempotencyKey); lookupErr == nil && ok {
				return s.GetBill(ctx, existing)
			}
		}
		config.LogError(s.logger, "bill_service.go", "CreateBill", "create bill", len(input.Items), err)
		return nil, err
	}
	return s.GetBill(ctx, id)
}

type billLine struct {
	batch ledger.Batch
	qty   int64
	split ledger.GSTSplit
}

func (s *billService) createBill(ctx context.Context, input BillInput, billDate time.Time) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock every batch and price every line before anything is written.
	lines := make([]billLine, len(input.Items))
	splits := make([]ledger.GSTSplit, len(input.Items))
	for i, item := range input.Items {
		line := i + 1
		b, err := lockBatchByID(ctx, tx, item.BatchID)
		if err != nil {
			return 0, lineErr(line, "lock batch", err)
		}
		if !b.IsActive {
			return 0, lineErr(line, "check batch", fmt.Errorf("batch %d: %w", b.ID, ErrNotFound))
		}
		if b.ExpiryDate.Before(dateOnly(billDate)) {
			return 0, lineErr(line, "check batch", fmt.Errorf("batch %s expired %s: %w",
				b.BatchNumber, b.ExpiryDate.Format(dateLayout), ErrBatchExpired))
		}
		if item.Quantity > b.Quantity {
			return 0, lineErr(line, "check stock", fmt.Errorf("%w: requested %d, on hand %d",
				ledger.ErrInsufficientStock, item.Quantity, b.Quantity))
		}
		// A second line on the same batch re-reads the row already decremented by the first.
		if err := adjustBatchQuantity(ctx, tx, b.ID, -item.Quantity); err != nil {
			return 0, lineErr(line, "decrement stock", err)
		}

		strip := b.SellingPrice
		if !strip.IsPositive() {
			strip = b.MRP
		}
		amount := ledger.PricePerPiece(strip, b.PackSize).Mul(decimal.NewFromInt(item.Quantity))
		lines[i] = billLine{batch: *b, qty: item.Quantity, split: ledger.InclusiveSplit(amount, b.GSTRate)}
		splits[i] = lines[i].split
	}

	number, err := nextDocumentNumber(ctx, tx, ledger.BillPrefix, billDate)
	if err != nil {
		return 0, err
	}

	rounded := ledger.DocumentTotals(splits)
	var billID int
	err = tx.QueryRow(ctx, `
		INSERT INTO bills (bill_number, bill_date, customer_name, customer_phone,
		                   subtotal, cgst_amount, sgst_amount, total_gst, grand_total,
		                   payment_mode, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, number, billDate, toPtr(strings.TrimSpace(input.CustomerName)), toPtr(strings.TrimSpace(input.CustomerPhone)),
		rounded.Net, rounded.CGST, rounded.SGST, rounded.TotalGST, rounded.Total,
		string(input.PaymentMode), input.IdempotencyKey,
	).Scan(&billID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bill: %w", err)
	}

	for i, l := range lines {
		r := l.split.Rounded()
		_, err := tx.Exec(ctx, `
			INSERT INTO bill_items (bill_id, batch_id, medicine_id, quantity, tablets_per_strip,
			                        mrp, selling_price, gst_rate, taxable_amount, cgst_amount, sgst_amount, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, billID, l.batch.ID, l.batch.MedicineID, l.qty, ledger.NormalizePackSize(l.batch.PackSize),
			l.batch.MRP, l.batch.SellingPrice, l.batch.GSTRate, r.Net, r.CGST, r.SGST, r.Total)
		if err != nil {
			return 0, lineErr(i+1, "insert bill item", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"bill_id": billID, "bill_number": number}).Info("bill created")
	return billID, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const billColumns = `id, bill_number, bill_date, customer_name, customer_phone,
	subtotal, cgst_amount, sgst_amount, total_gst, grand_total, payment_mode, idempotency_key, created_at`

func (s *billService) GetBill(ctx context.Context, id int) (*Bill, error) {
	return s.getBill(ctx, "id = $1", id)
}

func (s *billService) GetBillByNumber(ctx context.Context, number string) (*Bill, error) {
	return s.getBill(ctx, "bill_number = $1", strings.TrimSpace(number))
}

func (s *billService) getBill(ctx context.Context, where string, arg any) (*Bill, error) {
	b := &Bill{}
	err := s.pool.QueryRow(ctx, "SELECT "+billColumns+" FROM bills WHERE "+where, arg).Scan(
		&b.ID, &b.BillNumber, &b.BillDate, &b.CustomerName, &b.CustomerPhone,
		&b.Subtotal, &b.CGSTAmount, &b.SGSTAmount, &b.TotalGST, &b.GrandTotal,
		&b.PaymentMode, &b.IdempotencyKey, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bill %v: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("get bill %v: %w", arg, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT bi.id, bi.bill_id, bi.batch_id, bi.medicine_id, m.name, bt.batch_number,
		       bi.quantity, bi.returned_quantity, bi.tablets_per_strip, bi.mrp, bi.selling_price, bi.gst_rate,
		       bi.taxable_amount, bi.cgst_amount, bi.sgst_amount, bi.amount
		FROM bill_items bi
		JOIN medicines m ON m.id = bi.medicine_id
		JOIN batches bt ON bt.id = bi.batch_id
		WHERE bi.bill_id = $1
		ORDER BY bi.id
	`, b.ID)
	if err != nil {
		return nil, fmt.Errorf("get bill %d items: %w", b.ID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(
			&it.ID, &it.BillID, &it.BatchID, &it.MedicineID, &it.MedicineName, &it.BatchNumber,
			&it.Quantity, &it.ReturnedQuantity, &it.TabletsPerStrip, &it.MRP, &it.SellingPrice, &it.GSTRate,
			&it.TaxableAmount, &it.CGSTAmount, &it.SGSTAmount, &it.Amount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bill item: %w", err)
		}
		b.Items = append(b.Items, it)
	}
	return b, rows.Err()
}
