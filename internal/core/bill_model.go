package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Bill is a counter sale. Line amounts are tax inclusive.
type Bill struct {
	ID             int             `json:"id"`
	BillNumber     string          `json:"bill_number"`
	BillDate       time.Time       `json:"bill_date"`
	CustomerName   *string         `json:"customer_name,omitempty"`
	CustomerPhone  *string         `json:"customer_phone,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"` // net of GST
	CGSTAmount     decimal.Decimal `json:"cgst_amount"`
	SGSTAmount     decimal.Decimal `json:"sgst_amount"`
	TotalGST       decimal.Decimal `json:"total_gst"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	PaymentMode    PaymentMode     `json:"payment_mode"`
	IdempotencyKey string          `json:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []BillItem      `json:"items,omitempty"`
}

// BillItem is one sold line. Quantity and ReturnedQuantity are pieces;
// prices are per strip as they stood on the batch at sale time.
type BillItem struct {
	ID               int             `json:"id"`
	BillID           int             `json:"bill_id"`
	BatchID          int             `json:"batch_id"`
	MedicineID       int             `json:"medicine_id"`
	MedicineName     string          `json:"medicine_name"`
	BatchNumber      string          `json:"batch_number"`
	Quantity         int64           `json:"quantity"`
	ReturnedQuantity int64           `json:"returned_quantity"`
	TabletsPerStrip  int             `json:"tablets_per_strip"`
	MRP              decimal.Decimal `json:"mrp"`
	SellingPrice     decimal.Decimal `json:"selling_price"`
	GSTRate          decimal.Decimal `json:"gst_rate"`
	TaxableAmount    decimal.Decimal `json:"taxable_amount"`
	CGSTAmount       decimal.Decimal `json:"cgst_amount"`
	SGSTAmount       decimal.Decimal `json:"sgst_amount"`
	Amount           decimal.Decimal `json:"amount"`
}

// BillInput is a sale to be recorded in one transaction. BillDate defaults
// to today and PaymentMode to CASH.
type BillInput struct {
	BillDate       string          `json:"bill_date" validate:"omitempty,datetime=2006-01-02"`
	CustomerName   string          `json:"customer_name"`
	CustomerPhone  string          `json:"customer_phone"`
	PaymentMode    PaymentMode     `json:"payment_mode" validate:"omitempty,oneof=CASH CARD UPI"`
	IdempotencyKey string          `json:"idempotency_key"`
	Items          []BillItemInput `json:"items" validate:"required,min=1"`
}

// BillItemInput sells Quantity pieces from one batch.
type BillItemInput struct {
	BatchID  int   `json:"batch_id" validate:"required,gt=0"`
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

// BillService records sales against batch stock.
type BillService interface {
	// CreateBill decrements every line's batch and records the bill under
	// a fresh BL number. A line asking for more than is on hand fails the
	// whole bill.
	CreateBill(ctx context.Context, input BillInput) (*Bill, error)

	GetBill(ctx context.Context, id int) (*Bill, error)
	GetBillByNumber(ctx context.Context, number string) (*Bill, error)
}
