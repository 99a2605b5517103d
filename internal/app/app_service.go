package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"medbill/internal/core"
	"medbill/migrations"
)

type appService struct {
	pool       *pgxpool.Pool
	logger     *logrus.Logger
	bundlePath string

	suppliers core.SupplierService
	catalog   core.CatalogService
	inventory core.InventoryService
	purchases core.PurchaseService
	bills     core.BillService
	returns   core.ReturnService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(pool *pgxpool.Pool, logger *logrus.Logger, bundlePath string) ApplicationService {
	return &appService{
		pool:       pool,
		logger:     logger,
		bundlePath: bundlePath,
		suppliers:  core.NewSupplierService(pool, logger),
		catalog:    core.NewCatalogService(pool, logger),
		inventory:  core.NewInventoryService(pool),
		purchases:  core.NewPurchaseService(pool, logger),
		bills:      core.NewBillService(pool, logger),
		returns:    core.NewReturnService(pool, logger),
	}
}

func (s *appService) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *appService) Migrate(ctx context.Context) (*MigrationResult, error) {
	applied, err := migrations.Apply(ctx, s.pool, s.logger)
	if err != nil {
		return nil, err
	}
	return &MigrationResult{Applied: applied}, nil
}

// ── Suppliers ─────────────────────────────────────────────────────────────────

func (s *appService) ListSuppliers(ctx context.Context, req ListRequest) (*SupplierListResult, error) {
	suppliers, err := s.suppliers.ListSuppliers(ctx, req.Search, req.Limit)
	if err != nil {
		return nil, err
	}
	return &SupplierListResult{Suppliers: suppliers}, nil
}

func (s *appService) GetSupplier(ctx context.Context, id int) (*core.Supplier, error) {
	return s.suppliers.GetSupplier(ctx, id)
}

func (s *appService) CreateSupplier(ctx context.Context, input core.SupplierInput) (*core.Supplier, error) {
	return s.suppliers.CreateSupplier(ctx, input)
}

func (s *appService) UpdateSupplier(ctx context.Context, id int, input core.SupplierInput) (*core.Supplier, error) {
	return s.suppliers.UpdateSupplier(ctx, id, input)
}

func (s *appService) DeactivateSupplier(ctx context.Context, id int) error {
	return s.suppliers.DeactivateSupplier(ctx, id)
}

// ── Catalog and stock ─────────────────────────────────────────────────────────

func (s *appService) SearchMedicines(ctx context.Context, req ListRequest) (*MedicineListResult, error) {
	medicines, err := s.catalog.SearchMedicines(ctx, req.Search, req.Limit)
	if err != nil {
		return nil, err
	}
	return &MedicineListResult{Medicines: medicines}, nil
}

func (s *appService) GetMedicine(ctx context.Context, id int) (*core.Medicine, error) {
	return s.catalog.GetMedicine(ctx, id)
}

func (s *appService) CreateMedicine(ctx context.Context, input core.MedicineInput) (*core.Medicine, error) {
	return s.catalog.CreateMedicine(ctx, input)
}

func (s *appService) UpdateMedicine(ctx context.Context, id int, input core.MedicineInput) (*core.Medicine, error) {
	return s.catalog.UpdateMedicine(ctx, id, input)
}

func (s *appService) DeactivateMedicine(ctx context.Context, id int) error {
	return s.catalog.DeactivateMedicine(ctx, id)
}

func (s *appService) CountMedicines(ctx context.Context) (*MedicineCountResult, error) {
	n, err := s.catalog.CountActiveMedicines(ctx)
	if err != nil {
		return nil, err
	}
	return &MedicineCountResult{Active: n}, nil
}

func (s *appService) ImportMedicines(ctx context.Context, path string) (*core.ImportResult, error) {
	if strings.TrimSpace(path) == "" {
		path = s.bundlePath
	}
	return s.catalog.ImportBundle(ctx, path)
}

func (s *appService) ListBatches(ctx context.Context, medicineID int, includeEmpty bool) (*BatchListResult, error) {
	if _, err := s.catalog.GetMedicine(ctx, medicineID); err != nil {
		return nil, err
	}
	batches, err := s.inventory.ListBatches(ctx, medicineID, includeEmpty)
	if err != nil {
		return nil, err
	}
	return &BatchListResult{Batches: batches}, nil
}

func (s *appService) SearchStock(ctx context.Context, req ListRequest) (*StockResult, error) {
	levels, err := s.inventory.SearchStock(ctx, req.Search, req.Limit)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels}, nil
}

func (s *appService) ExpiringBatches(ctx context.Context, before string) (*BatchListResult, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(before))
	if err != nil {
		return nil, core.ValidationErrors{{Field: "before", Message: "must be a date in 2006-01-02 format"}}
	}
	batches, err := s.inventory.ExpiringBatches(ctx, date)
	if err != nil {
		return nil, err
	}
	return &BatchListResult{Batches: batches}, nil
}

// ── Purchases and sales ───────────────────────────────────────────────────────

func (s *appService) SavePurchase(ctx context.Context, input core.PurchaseInput) (*core.Purchase, error) {
	return s.purchases.SavePurchase(ctx, input)
}

func (s *appService) UpdatePurchase(ctx context.Context, id int, update core.PurchaseHeaderUpdate) (*core.Purchase, error) {
	return s.purchases.UpdatePurchase(ctx, id, update)
}

func (s *appService) GetPurchase(ctx context.Context, id int) (*core.Purchase, error) {
	return s.purchases.GetPurchase(ctx, id)
}

func (s *appService) ListPurchases(ctx context.Context, req ListRequest) (*PurchaseListResult, error) {
	purchases, err := s.purchases.ListPurchases(ctx, core.PurchaseFilter{
		SupplierID: req.PartyID,
		Search:     req.Search,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseListResult{Purchases: purchases}, nil
}

func (s *appService) CreateBill(ctx context.Context, input core.BillInput) (*core.Bill, error) {
	return s.bills.CreateBill(ctx, input)
}

// GetBill accepts a numeric ID or a bill number such as BL26100001.
func (s *appService) GetBill(ctx context.Context, ref string) (*core.Bill, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		return s.bills.GetBill(ctx, id)
	}
	return s.bills.GetBillByNumber(ctx, strings.ToUpper(ref))
}

// ── Returns ───────────────────────────────────────────────────────────────────

func (s *appService) ProcessSalesReturn(ctx context.Context, input core.SalesReturnInput) (*core.SalesReturn, error) {
	return s.returns.ProcessSalesReturn(ctx, input)
}

func (s *appService) GetSalesReturn(ctx context.Context, id int) (*core.SalesReturn, error) {
	return s.returns.GetSalesReturn(ctx, id)
}

func (s *appService) ListSalesReturns(ctx context.Context, req ListRequest) (*SalesReturnListResult, error) {
	returns, err := s.returns.ListSalesReturns(ctx, toReturnFilter(req))
	if err != nil {
		return nil, err
	}
	return &SalesReturnListResult{Returns: returns}, nil
}

func (s *appService) ProcessSupplierReturn(ctx context.Context, input core.SupplierReturnInput) (*core.SupplierReturn, error) {
	return s.returns.ProcessSupplierReturn(ctx, input)
}

func (s *appService) GetSupplierReturn(ctx context.Context, id int) (*core.SupplierReturn, error) {
	return s.returns.GetSupplierReturn(ctx, id)
}

func (s *appService) ListSupplierReturns(ctx context.Context, req ListRequest) (*SupplierReturnListResult, error) {
	returns, err := s.returns.ListSupplierReturns(ctx, toReturnFilter(req))
	if err != nil {
		return nil, err
	}
	return &SupplierReturnListResult{Returns: returns}, nil
}

func toReturnFilter(req ListRequest) core.ReturnFilter {
	return core.ReturnFilter{PartyID: req.PartyID, Search: req.Search, Limit: req.Limit, Offset: req.Offset}
}
