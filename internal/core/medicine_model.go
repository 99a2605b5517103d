package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Medicine is a catalog product. Stock is held per batch, never here.
type Medicine struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	GenericName  *string         `json:"generic_name,omitempty"`
	Manufacturer *string         `json:"manufacturer,omitempty"`
	HSNCode      *string         `json:"hsn_code,omitempty"`
	Category     *string         `json:"category,omitempty"`
	DrugType     *string         `json:"drug_type,omitempty"`
	PackSize     int             `json:"pack_size"`
	Unit         string          `json:"unit"`
	ReorderLevel int             `json:"reorder_level"`
	GSTRate      decimal.Decimal `json:"gst_rate"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MedicineInput holds the editable medicine fields. A zero PackSize means
// the default strip size; a missing GSTRate means the default rate.
type MedicineInput struct {
	Name         string              `json:"name" validate:"required"`
	GenericName  string              `json:"generic_name"`
	Manufacturer string              `json:"manufacturer"`
	HSNCode      string              `json:"hsn_code" validate:"omitempty,numeric,max=8"`
	Category     string              `json:"category"`
	DrugType     string              `json:"drug_type"`
	PackSize     int                 `json:"pack_size" validate:"gte=0"`
	Unit         string              `json:"unit"`
	ReorderLevel int                 `json:"reorder_level" validate:"gte=0"`
	GSTRate      decimal.NullDecimal `json:"gst_rate"`
}

// ImportResult reports what a catalog import did.
type ImportResult struct {
	Imported int  `json:"imported"`
	Skipped  bool `json:"skipped"`
	Total    int  `json:"total"`
}

// CatalogService manages the medicine catalog.
type CatalogService interface {
	CreateMedicine(ctx context.Context, input MedicineInput) (*Medicine, error)
	UpdateMedicine(ctx context.Context, id int, input MedicineInput) (*Medicine, error)
	DeactivateMedicine(ctx context.Context, id int) error
	GetMedicine(ctx context.Context, id int) (*Medicine, error)

	// SearchMedicines matches active medicines by name, generic name or
	// manufacturer, ordered by name.
	SearchMedicines(ctx context.Context, query string, limit int) ([]Medicine, error)

	CountActiveMedicines(ctx context.Context) (int, error)

	// ImportBundle copies every medicine from the bundled SQLite catalog at
	// path, but only while the catalog is still empty.
	ImportBundle(ctx context.Context, path string) (*ImportResult, error)
}
