package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is a supplier invoice entered into stock.
type Purchase struct {
	ID             int             `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	SupplierID     int             `json:"supplier_id"`
	SupplierName   string          `json:"supplier_name"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	CGSTAmount     decimal.Decimal `json:"cgst_amount"`
	SGSTAmount     decimal.Decimal `json:"sgst_amount"`
	TotalGST       decimal.Decimal `json:"total_gst"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Notes          *string         `json:"notes,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []PurchaseItem  `json:"items,omitempty"`
}

// PurchaseItem is one invoice line. Quantity and FreeQuantity are strips;
// TotalPieces is what the line added to its batch.
type PurchaseItem struct {
	ID              int             `json:"id"`
	PurchaseID      int             `json:"purchase_id"`
	MedicineID      int             `json:"medicine_id"`
	MedicineName    string          `json:"medicine_name"`
	BatchID         int             `json:"batch_id"`
	BatchNumber     string          `json:"batch_number"`
	ExpiryDate      time.Time       `json:"expiry_date"`
	Quantity        int64           `json:"quantity"`
	FreeQuantity    int64           `json:"free_quantity"`
	TabletsPerStrip int             `json:"tablets_per_strip"`
	TotalPieces     int64           `json:"total_pieces"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	MRP             decimal.Decimal `json:"mrp"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	GSTRate         decimal.Decimal `json:"gst_rate"`
	TaxableAmount   decimal.Decimal `json:"taxable_amount"`
	CGSTAmount      decimal.Decimal `json:"cgst_amount"`
	SGSTAmount      decimal.Decimal `json:"sgst_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

// PurchaseInput is a full supplier invoice to be saved in one transaction.
// An empty PaymentStatus is derived from PaidAmount against the grand total.
type PurchaseInput struct {
	SupplierID     int                 `json:"supplier_id" validate:"required,gt=0"`
	InvoiceNumber  string              `json:"invoice_number" validate:"required"`
	InvoiceDate    string              `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	PaymentStatus  PaymentStatus       `json:"payment_status" validate:"omitempty,oneof=PENDING PARTIAL PAID"`
	PaidAmount     decimal.Decimal     `json:"paid_amount"`
	Notes          string              `json:"notes"`
	IdempotencyKey string              `json:"idempotency_key"`
	Items          []PurchaseItemInput `json:"items" validate:"required,min=1"`
}

// PurchaseItemInput is one invoice line. Quantities are strips and prices are
// per strip. A zero TabletsPerStrip takes the medicine's pack size.
type PurchaseItemInput struct {
	MedicineID      int                 `json:"medicine_id" validate:"required,gt=0"`
	BatchNumber     string              `json:"batch_number" validate:"required"`
	ExpiryDate      string              `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	Quantity        int64               `json:"quantity" validate:"gte=0"`
	FreeQuantity    int64               `json:"free_quantity" validate:"gte=0"`
	TabletsPerStrip int                 `json:"tablets_per_strip" validate:"gte=0"`
	PurchasePrice   decimal.Decimal     `json:"purchase_price"`
	MRP             decimal.Decimal     `json:"mrp"`
	SellingPrice    decimal.Decimal     `json:"selling_price"`
	GSTRate         decimal.NullDecimal `json:"gst_rate"`
	Rack            string              `json:"rack"`
	Box             string              `json:"box"`
}

// PurchaseHeaderUpdate changes header fields of a saved purchase. Nil fields
// are left as they are. Lines and stock are never touched.
type PurchaseHeaderUpdate struct {
	InvoiceNumber *string          `json:"invoice_number"`
	InvoiceDate   *string          `json:"invoice_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentStatus *PaymentStatus   `json:"payment_status" validate:"omitempty,oneof=PENDING PARTIAL PAID"`
	PaidAmount    *decimal.Decimal `json:"paid_amount"`
	Notes         *string          `json:"notes"`
}

// PurchaseFilter narrows ListPurchases. Zero values mean no filter.
type PurchaseFilter struct {
	SupplierID int
	Search     string // contained in the invoice number
	Limit      int
	Offset     int
}

// PurchaseService records supplier invoices and lands them in batch stock.
type PurchaseService interface {
	// SavePurchase validates every line, then in one transaction inserts the
	// header, merges or creates a batch per line, inserts the lines and sets
	// the header totals. Nothing is written when any step fails. Saving the
	// same idempotency key twice returns the first purchase unchanged.
	SavePurchase(ctx context.Context, input PurchaseInput) (*Purchase, error)

	// UpdatePurchase edits header fields only.
	UpdatePurchase(ctx context.Context, id int, update PurchaseHeaderUpdate) (*Purchase, error)

	// GetPurchase returns a purchase with its lines.
	GetPurchase(ctx context.Context, id int) (*Purchase, error)

	// ListPurchases returns purchase headers, most recent invoice first.
	ListPurchases(ctx context.Context, filter PurchaseFilter) ([]Purchase, error)
}
