package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"medbill/internal/ledger"
)

const medicineColumns = `id, name, generic_name, manufacturer, hsn_code, category, drug_type,
	pack_size, unit, reorder_level, gst_rate, is_active, created_at, updated_at`

const defaultUnit = "strip"

type catalogService struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// NewCatalogService constructs a CatalogService backed by PostgreSQL.
func NewCatalogService(pool *pgxpool.Pool, logger *logrus.Logger) CatalogService {
	return &catalogService{pool: pool, logger: logger}
}

func scanMedicine(row pgx.Row) (*Medicine, error) {
	m := &Medicine{}
	err := row.Scan(
		&m.ID, &m.Name, &m.GenericName, &m.Manufacturer, &m.HSNCode, &m.Category, &m.DrugType,
		&m.PackSize, &m.Unit, &m.ReorderLevel, &m.GSTRate, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

func normalizeMedicineInput(input MedicineInput) (MedicineInput, decimal.Decimal, error) {
	input.Name = strings.TrimSpace(input.Name)
	errs := checkStruct(0, input)
	rate := ledger.DefaultGSTRate
	if input.GSTRate.Valid {
		rate = input.GSTRate.Decimal
		if err := ledger.ValidateGSTRate(rate); err != nil {
			errs = append(errs, ValidationError{Field: "gst_rate", Message: err.Error()})
		}
	}
	if len(errs) > 0 {
		return input, rate, errs
	}
	input.PackSize = ledger.NormalizePackSize(input.PackSize)
	if strings.TrimSpace(input.Unit) == "" {
		input.Unit = defaultUnit
	}
	return input, rate, nil
}

func (s *catalogService) CreateMedicine(ctx context.Context, input MedicineInput) (*Medicine, error) {
	input, rate, err := normalizeMedicineInput(input)
	if err != nil {
		return nil, err
	}

	m, err := scanMedicine(s.pool.QueryRow(ctx, `
		INSERT INTO medicines (name, generic_name, manufacturer, hsn_code, category, drug_type,
		                       pack_size, unit, reorder_level, gst_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+medicineColumns,
		input.Name, toPtr(input.GenericName), toPtr(input.Manufacturer), toPtr(input.HSNCode),
		toPtr(input.Category), toPtr(input.DrugType), input.PackSize, input.Unit, input.ReorderLevel, rate,
	))
	if err != nil {
		return nil, fmt.Errorf("create medicine %q: %w", input.Name, err)
	}
	s.logger.WithFields(logrus.Fields{"medicine_id": m.ID, "name": m.Name}).Info("medicine created")
	return m, nil
}

// UpdateMedicine replaces the catalog fields of a medicine. Existing batches
// keep the pack size and GST rate they were received with.
func (s *catalogService) UpdateMedicine(ctx context.Context, id int, input MedicineInput) (*Medicine, error) {
	input, rate, err := normalizeMedicineInput(input)
	if err != nil {
		return nil, err
	}

	m, err := scanMedicine(s.pool.QueryRow(ctx, `
		UPDATE medicines
		SET name = $2, generic_name = $3, manufacturer = $4, hsn_code = $5, category = $6,
		    drug_type = $7, pack_size = $8, unit = $9, reorder_level = $10, gst_rate = $11,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+medicineColumns,
		id, input.Name, toPtr(input.GenericName), toPtr(input.Manufacturer), toPtr(input.HSNCode),
		toPtr(input.Category), toPtr(input.DrugType), input.PackSize, input.Unit, input.ReorderLevel, rate,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("medicine %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("update medicine %d: %w", id, err)
	}
	return m, nil
}

func (s *catalogService) DeactivateMedicine(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE medicines SET is_active = false, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deactivate medicine %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("medicine %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *catalogService) GetMedicine(ctx context.Context, id int) (*Medicine, error) {
	m, err := scanMedicine(s.pool.QueryRow(ctx,
		"SELECT "+medicineColumns+" FROM medicines WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("medicine %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get medicine %d: %w", id, err)
	}
	return m, nil
}

func (s *catalogService) SearchMedicines(ctx context.Context, query string, limit int) ([]Medicine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE is_active = true
		  AND ($1 = '' OR name ILIKE $2 OR generic_name ILIKE $2 OR manufacturer ILIKE $2)
		ORDER BY name
		LIMIT $3`,
		strings.TrimSpace(query), likePattern(query), clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("search medicines: %w", err)
	}
	defer rows.Close()

	var medicines []Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medicine: %w", err)
		}
		medicines = append(medicines, *m)
	}
	return medicines, rows.Err()
}

func (s *catalogService) CountActiveMedicines(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM medicines WHERE is_active = true").Scan(&n); err != nil {
		return 0, fmt.Errorf("count medicines: %w", err)
	}
	return n, nil
}

// bundleMedicine is one row of the bundled SQLite catalog.
type bundleMedicine struct {
	Name         string  `db:"name"`
	GenericName  *string `db:"generic_name"`
	Manufacturer *string `db:"manufacturer"`
	HSNCode      *string `db:"hsn_code"`
	Category     *string `db:"category"`
	DrugType     *string `db:"drug_type"`
	PackSize     *int    `db:"pack_size"`
	Unit         *string `db:"unit"`
	ReorderLevel *int    `db:"reorder_level"`
	IsActive     *bool   `db:"is_active"`
}

func readBundle(ctx context.Context, path string) ([]bundleMedicine, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("medicine bundle not found at %s: %w", path, err)
	}
	db, err := sqlx.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open medicine bundle: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	var rows []bundleMedicine
	err = db.SelectContext(ctx, &rows, `
		SELECT name, generic_name, manufacturer, hsn_code, category, drug_type,
		       pack_size, unit, reorder_level, is_active
		FROM medicines
		WHERE name IS NOT NULL AND TRIM(name) <> ''`)
	if err != nil {
		return nil, fmt.Errorf("read medicine bundle: %w", err)
	}
	return rows, nil
}

func (s *catalogService) ImportBundle(ctx context.Context, path string) (*ImportResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serializes concurrent imports so the catalog is seeded at most once.
	if _, err := tx.Exec(ctx, "LOCK TABLE medicines IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return nil, fmt.Errorf("lock medicines: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM medicines").Scan(&count); err != nil {
		return nil, fmt.Errorf("count medicines: %w", err)
	}
	if count > 0 {
		s.logger.WithField("count", count).Info("medicine catalog already populated, skipping bundle import")
		return &ImportResult{Skipped: true, Total: count}, nil
	}

	bundle, err := readBundle(ctx, path)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(bundle))
	for _, b := range bundle {
		packSize := ledger.DefaultPackSize
		if b.PackSize != nil {
			packSize = ledger.NormalizePackSize(*b.PackSize)
		}
		unit := defaultUnit
		if b.Unit != nil && strings.TrimSpace(*b.Unit) != "" {
			unit = *b.Unit
		}
		reorder := 0
		if b.ReorderLevel != nil && *b.ReorderLevel > 0 {
			reorder = *b.ReorderLevel
		}
		active := true
		if b.IsActive != nil {
			active = *b.IsActive
		}
		rows = append(rows, []any{
			strings.TrimSpace(b.Name), b.GenericName, b.Manufacturer, b.HSNCode, b.Category, b.DrugType,
			packSize, unit, reorder, active,
		})
	}

	imported, err := tx.CopyFrom(ctx,
		pgx.Identifier{"medicines"},
		[]string{"name", "generic_name", "manufacturer", "hsn_code", "category", "drug_type",
			"pack_size", "unit", "reorder_level", "is_active"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return nil, fmt.Errorf("copy bundled medicines: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"imported": imported, "bundle": path}).Info("medicine bundle imported")
	return &ImportResult{Imported: int(imported), Total: int(imported)}, nil
}
