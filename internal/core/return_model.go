package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReturnStatusCompleted is the status of a processed return. Returns are
// recorded only once their stock effect has been applied.
const ReturnStatusCompleted = "COMPLETED"

// SalesReturn is a customer return against a bill. Amounts are tax inclusive.
type SalesReturn struct {
	ID             int               `json:"id"`
	ReturnNumber   string            `json:"return_number"`
	ReturnDate     time.Time         `json:"return_date"`
	BillID         int               `json:"bill_id"`
	BillNumber     string            `json:"bill_number"`
	Reason         *string           `json:"reason,omitempty"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	CGSTAmount     decimal.Decimal   `json:"cgst_amount"`
	SGSTAmount     decimal.Decimal   `json:"sgst_amount"`
	TotalGST       decimal.Decimal   `json:"total_gst"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	Status         string            `json:"status"`
	IdempotencyKey string            `json:"idempotency_key"`
	CreatedAt      time.Time         `json:"created_at"`
	Items          []SalesReturnItem `json:"items,omitempty"`
}

// SalesReturnItem is one returned bill line. Quantity is pieces.
type SalesReturnItem struct {
	ID            int             `json:"id"`
	SalesReturnID int             `json:"sales_return_id"`
	BillItemID    int             `json:"bill_item_id"`
	BatchID       int             `json:"batch_id"`
	MedicineID    int             `json:"medicine_id"`
	MedicineName  string          `json:"medicine_name"`
	BatchNumber   string          `json:"batch_number"`
	Quantity      int64           `json:"quantity"`
	PricePerPiece decimal.Decimal `json:"price_per_piece"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	Amount        decimal.Decimal `json:"amount"`
	CGSTAmount    decimal.Decimal `json:"cgst_amount"`
	SGSTAmount    decimal.Decimal `json:"sgst_amount"`
	TotalGST      decimal.Decimal `json:"total_gst"`
}

// SalesReturnInput returns pieces of one or more lines of a bill.
type SalesReturnInput struct {
	BillID         int                    `json:"bill_id" validate:"required,gt=0"`
	ReturnDate     string                 `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
	Reason         string                 `json:"reason"`
	IdempotencyKey string                 `json:"idempotency_key"`
	Items          []SalesReturnItemInput `json:"items" validate:"required,min=1"`
}

// SalesReturnItemInput returns Quantity pieces of a bill line.
type SalesReturnItemInput struct {
	BillItemID int   `json:"bill_item_id" validate:"required,gt=0"`
	Quantity   int64 `json:"quantity" validate:"required,gt=0"`
}

// SupplierReturn is stock sent back to a supplier. Amounts are tax inclusive.
type SupplierReturn struct {
	ID             int                  `json:"id"`
	ReturnNumber   string               `json:"return_number"`
	ReturnDate     time.Time            `json:"return_date"`
	SupplierID     int                  `json:"supplier_id"`
	SupplierName   string               `json:"supplier_name"`
	Reason         *string              `json:"reason,omitempty"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	CGSTAmount     decimal.Decimal      `json:"cgst_amount"`
	SGSTAmount     decimal.Decimal      `json:"sgst_amount"`
	TotalGST       decimal.Decimal      `json:"total_gst"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	Status         string               `json:"status"`
	IdempotencyKey string               `json:"idempotency_key"`
	CreatedAt      time.Time            `json:"created_at"`
	Items          []SupplierReturnItem `json:"items,omitempty"`
}

// SupplierReturnItem is one returned batch. Quantity is pieces and
// UnitPrice is the batch MRP it was charged back at.
type SupplierReturnItem struct {
	ID               int             `json:"id"`
	SupplierReturnID int             `json:"supplier_return_id"`
	BatchID          int             `json:"batch_id"`
	MedicineID       int             `json:"medicine_id"`
	MedicineName     string          `json:"medicine_name"`
	BatchNumber      string          `json:"batch_number"`
	Quantity         int64           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	GSTRate          decimal.Decimal `json:"gst_rate"`
	Amount           decimal.Decimal `json:"amount"`
	CGSTAmount       decimal.Decimal `json:"cgst_amount"`
	SGSTAmount       decimal.Decimal `json:"sgst_amount"`
	TotalGST         decimal.Decimal `json:"total_gst"`
}

// SupplierReturnInput sends stock from one or more batches back to a supplier.
type SupplierReturnInput struct {
	SupplierID     int                       `json:"supplier_id" validate:"required,gt=0"`
	ReturnDate     string                    `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
	Reason         string                    `json:"reason"`
	IdempotencyKey string                    `json:"idempotency_key"`
	Items          []SupplierReturnItemInput `json:"items" validate:"required,min=1"`
}

// SupplierReturnItemInput returns Quantity pieces of a batch.
type SupplierReturnItemInput struct {
	BatchID  int   `json:"batch_id" validate:"required,gt=0"`
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

// ReturnFilter narrows return listings. Zero values mean no filter.
type ReturnFilter struct {
	PartyID int    // bill for sales returns, supplier for supplier returns
	Search  string // contained in the return number
	Limit   int
	Offset  int
}

// ReturnService reverses sales and purchases. Every return applies its stock
// effect exactly once, in the same transaction that records it.
type ReturnService interface {
	// ProcessSalesReturn puts returned pieces back on their batches and
	// refunds them at the bill's per-piece price. Asking for more than the
	// line still has returnable fails the whole return.
	ProcessSalesReturn(ctx context.Context, input SalesReturnInput) (*SalesReturn, error)

	// ProcessSupplierReturn takes pieces off their batches and charges them
	// back at MRP. Asking for more than is on hand fails the whole return.
	ProcessSupplierReturn(ctx context.Context, input SupplierReturnInput) (*SupplierReturn, error)

	GetSalesReturn(ctx context.Context, id int) (*SalesReturn, error)
	ListSalesReturns(ctx context.Context, filter ReturnFilter) ([]SalesReturn, error)
	GetSupplierReturn(ctx context.Context, id int) (*SupplierReturn, error)
	ListSupplierReturns(ctx context.Context, filter ReturnFilter) ([]SupplierReturn, error)
}
