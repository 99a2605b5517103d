package core

import (
	"context"
	"time"

	"medbill/internal/ledger"
)

// BatchStock is a stored batch with its medicine name. Quantity is in pieces.
type BatchStock struct {
	ledger.Batch
	MedicineName string    `json:"medicine_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StockLevel is a read view of one medicine's stock summed over its active batches.
type StockLevel struct {
	MedicineID    int        `json:"medicine_id"`
	MedicineName  string     `json:"medicine_name"`
	GenericName   *string    `json:"generic_name,omitempty"`
	Manufacturer  *string    `json:"manufacturer,omitempty"`
	PackSize      int        `json:"pack_size"`
	Pieces        int64      `json:"pieces"`
	Strips        int64      `json:"strips"`       // whole strips in Pieces
	LoosePieces   int64      `json:"loose_pieces"` // = Pieces - Strips*PackSize
	BatchCount    int        `json:"batch_count"`
	NearestExpiry *time.Time `json:"nearest_expiry,omitempty"`
	ReorderLevel  int        `json:"reorder_level"`
	BelowReorder  bool       `json:"below_reorder"` // Strips < ReorderLevel
}

// InventoryService reads batch stock. All stock changes go through purchases,
// bills and returns.
type InventoryService interface {
	GetBatch(ctx context.Context, id int) (*BatchStock, error)

	// ListBatches returns a medicine's active batches, earliest expiry first.
	// Empty batches are left out unless includeEmpty is set.
	ListBatches(ctx context.Context, medicineID int, includeEmpty bool) ([]BatchStock, error)

	// SearchStock returns stock levels for active medicines matching query.
	SearchStock(ctx context.Context, query string, limit int) ([]StockLevel, error)

	// ExpiringBatches returns batches with stock that expire before the given date.
	ExpiringBatches(ctx context.Context, before time.Time) ([]BatchStock, error)
}
