package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Batch is one lot of a medicine, keyed by (MedicineID, BatchNumber).
// Quantity is held in pieces.
type Batch struct {
	ID            int             `json:"id"`
	MedicineID    int             `json:"medicine_id"`
	BatchNumber   string          `json:"batch_number"`
	ExpiryDate    time.Time       `json:"expiry_date"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	MRP           decimal.Decimal `json:"mrp"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Quantity      int64           `json:"quantity"`
	PackSize      int             `json:"tablets_per_strip"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	Rack          string          `json:"rack"`
	Box           string          `json:"box"`
	PurchaseID    *int            `json:"purchase_id,omitempty"`
	SupplierID    *int            `json:"supplier_id,omitempty"`
	IsActive      bool            `json:"is_active"`
}

// BatchLine is the batch-facing part of a purchase line. Prices are per strip.
type BatchLine struct {
	MedicineID    int
	BatchNumber   string
	ExpiryDate    time.Time
	Strips        int64
	FreeStrips    int64
	PackSize      int
	PurchasePrice decimal.Decimal
	MRP           decimal.Decimal
	SellingPrice  decimal.Decimal
	GSTRate       decimal.NullDecimal
	Rack          string
	Box           string
	PurchaseID    *int
	SupplierID    *int
}

// Pieces is the stock the line adds, free strips included.
func (l BatchLine) Pieces() int64 {
	return PiecesFromStrips(l.Strips, l.FreeStrips, l.PackSize)
}

// Rate is the line's GST rate, DefaultGSTRate when none was given.
func (l BatchLine) Rate() decimal.Decimal {
	if l.GSTRate.Valid {
		return l.GSTRate.Decimal
	}
	return DefaultGSTRate
}

type BatchActionKind string

const (
	ActionIncrement BatchActionKind = "increment"
	ActionCreate    BatchActionKind = "create"
)

// BatchAction says how a purchase line lands in stock. Batch is the record as
// it must look after the action; for an increment only AddPieces is applied
// to the stored quantity, Batch.Quantity is informational.
type BatchAction struct {
	Kind      BatchActionKind
	BatchID   int
	AddPieces int64
	Batch     Batch
}

// ResolveBatch decides whether line merges into existing or creates a new
// batch. existing is the row stored under the line's exact key, or nil.
func ResolveBatch(existing *Batch, line BatchLine) (BatchAction, error) {
	if line.MedicineID <= 0 {
		return BatchAction{}, fmt.Errorf("medicine id is required")
	}
	if strings.TrimSpace(line.BatchNumber) == "" {
		return BatchAction{}, fmt.Errorf("batch number is required")
	}
	if line.Strips < 0 || line.FreeStrips < 0 || line.Strips+line.FreeStrips == 0 {
		return BatchAction{}, ErrInvalidQuantity
	}
	if err := ValidateGSTRate(line.Rate()); err != nil {
		return BatchAction{}, err
	}

	pieces := line.Pieces()

	if existing == nil {
		return BatchAction{
			Kind:      ActionCreate,
			AddPieces: pieces,
			Batch: Batch{
				MedicineID:    line.MedicineID,
				BatchNumber:   line.BatchNumber,
				ExpiryDate:    line.ExpiryDate,
				PurchasePrice: line.PurchasePrice,
				MRP:           line.MRP,
				SellingPrice:  line.SellingPrice,
				Quantity:      pieces,
				PackSize:      NormalizePackSize(line.PackSize),
				GSTRate:       line.Rate(),
				Rack:          line.Rack,
				Box:           line.Box,
				PurchaseID:    line.PurchaseID,
				SupplierID:    line.SupplierID,
				IsActive:      true,
			},
		}, nil
	}

	if existing.MedicineID != line.MedicineID || existing.BatchNumber != line.BatchNumber {
		return BatchAction{}, fmt.Errorf("%w: batch %d is (%d, %q), line is (%d, %q)", ErrBatchKeyMismatch,
			existing.ID, existing.MedicineID, existing.BatchNumber, line.MedicineID, line.BatchNumber)
	}

	merged := *existing
	merged.Quantity = existing.Quantity + pieces
	merged.PurchasePrice = line.PurchasePrice
	merged.MRP = line.MRP
	merged.SellingPrice = line.SellingPrice
	merged.PackSize = NormalizePackSize(line.PackSize)
	if strings.TrimSpace(line.Rack) != "" {
		merged.Rack = line.Rack
	}
	if strings.TrimSpace(line.Box) != "" {
		merged.Box = line.Box
	}
	if line.PurchaseID != nil {
		merged.PurchaseID = line.PurchaseID
	}
	if line.SupplierID != nil {
		merged.SupplierID = line.SupplierID
	}
	merged.IsActive = true

	return BatchAction{
		Kind:      ActionIncrement,
		BatchID:   existing.ID,
		AddPieces: pieces,
		Batch:     merged,
	}, nil
}
