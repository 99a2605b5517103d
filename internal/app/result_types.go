package app

import "medbill/internal/core"

// MigrationResult is returned by Migrate.
type MigrationResult struct {
	Applied []string `json:"applied"`
}

// SupplierListResult is returned by ListSuppliers.
type SupplierListResult struct {
	Suppliers []core.Supplier `json:"suppliers"`
}

// MedicineListResult is returned by SearchMedicines.
type MedicineListResult struct {
	Medicines []core.Medicine `json:"medicines"`
}

// MedicineCountResult is returned by CountMedicines.
type MedicineCountResult struct {
	Active int `json:"active"`
}

// BatchListResult is returned by ListBatches and ExpiringBatches.
type BatchListResult struct {
	Batches []core.BatchStock `json:"batches"`
}

// StockResult is returned by SearchStock.
type StockResult struct {
	Levels []core.StockLevel `json:"levels"`
}

// PurchaseListResult is returned by ListPurchases.
type PurchaseListResult struct {
	Purchases []core.Purchase `json:"purchases"`
}

// SalesReturnListResult is returned by ListSalesReturns.
type SalesReturnListResult struct {
	Returns []core.SalesReturn `json:"returns"`
}

// SupplierReturnListResult is returned by ListSupplierReturns.
type SupplierReturnListResult struct {
	Returns []core.SupplierReturn `json:"returns"`
}
