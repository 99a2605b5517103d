package app

import (
	"context"

	"medbill/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// Health pings the database.
	Health(ctx context.Context) error

	// Migrate applies pending schema migrations.
	Migrate(ctx context.Context) (*MigrationResult, error)

	// ── Suppliers ────────────────────────────────────────────────────────────

	ListSuppliers(ctx context.Context, req ListRequest) (*SupplierListResult, error)
	GetSupplier(ctx context.Context, id int) (*core.Supplier, error)
	CreateSupplier(ctx context.Context, input core.SupplierInput) (*core.Supplier, error)
	UpdateSupplier(ctx context.Context, id int, input core.SupplierInput) (*core.Supplier, error)
	DeactivateSupplier(ctx context.Context, id int) error

	// ── Catalog and stock ────────────────────────────────────────────────────

	SearchMedicines(ctx context.Context, req ListRequest) (*MedicineListResult, error)
	GetMedicine(ctx context.Context, id int) (*core.Medicine, error)
	CreateMedicine(ctx context.Context, input core.MedicineInput) (*core.Medicine, error)
	UpdateMedicine(ctx context.Context, id int, input core.MedicineInput) (*core.Medicine, error)
	DeactivateMedicine(ctx context.Context, id int) error
	CountMedicines(ctx context.Context) (*MedicineCountResult, error)

	// ImportMedicines seeds an empty catalog from the bundled SQLite file.
	// An empty path uses the configured bundle path.
	ImportMedicines(ctx context.Context, path string) (*core.ImportResult, error)

	// ListBatches returns a medicine's batches, earliest expiry first.
	ListBatches(ctx context.Context, medicineID int, includeEmpty bool) (*BatchListResult, error)

	// SearchStock returns per-medicine stock in strips and loose pieces.
	SearchStock(ctx context.Context, req ListRequest) (*StockResult, error)

	// ExpiringBatches returns batches with stock expiring before a YYYY-MM-DD date.
	ExpiringBatches(ctx context.Context, before string) (*BatchListResult, error)

	// ── Purchases and sales ──────────────────────────────────────────────────

	SavePurchase(ctx context.Context, input core.PurchaseInput) (*core.Purchase, error)
	UpdatePurchase(ctx context.Context, id int, update core.PurchaseHeaderUpdate) (*core.Purchase, error)
	GetPurchase(ctx context.Context, id int) (*core.Purchase, error)
	ListPurchases(ctx context.Context, req ListRequest) (*PurchaseListResult, error)

	CreateBill(ctx context.Context, input core.BillInput) (*core.Bill, error)

	// GetBill returns a bill by numeric ID or bill number.
	GetBill(ctx context.Context, ref string) (*core.Bill, error)

	// ── Returns ──────────────────────────────────────────────────────────────

	ProcessSalesReturn(ctx context.Context, input core.SalesReturnInput) (*core.SalesReturn, error)
	GetSalesReturn(ctx context.Context, id int) (*core.SalesReturn, error)
	ListSalesReturns(ctx context.Context, req ListRequest) (*SalesReturnListResult, error)

	ProcessSupplierReturn(ctx context.Context, input core.SupplierReturnInput) (*core.SupplierReturn, error)
	GetSupplierReturn(ctx context.Context, id int) (*core.SupplierReturn, error)
	ListSupplierReturns(ctx context.Context, req ListRequest) (*SupplierReturnListResult, error)
}
