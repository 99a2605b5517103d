package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const defaultPaymentTermsDays = 30

const supplierColumns = `id, name, contact_person, phone, email, address, gstin, drug_license_no,
	payment_terms_days, is_active, created_at, updated_at`

type supplierService struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// NewSupplierService constructs a SupplierService backed by PostgreSQL.
func NewSupplierService(pool *pgxpool.Pool, logger *logrus.Logger) SupplierService {
	return &supplierService{pool: pool, logger: logger}
}

func scanSupplier(row pgx.Row) (*Supplier, error) {
	s := &Supplier{}
	err := row.Scan(
		&s.ID, &s.Name, &s.ContactPerson, &s.Phone, &s.Email, &s.Address, &s.GSTIN, &s.DrugLicenseNo,
		&s.PaymentTermsDays, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func normalizeSupplierInput(input SupplierInput) (SupplierInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.GSTIN = strings.ToUpper(strings.TrimSpace(input.GSTIN))
	if errs := checkStruct(0, input); len(errs) > 0 {
		return input, errs
	}
	return input, nil
}

// CreateSupplier inserts a new active supplier. Payment terms default to
// 30 days when not given; an explicit 0 means cash terms.
func (s *supplierService) CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error) {
	input, err := normalizeSupplierInput(input)
	if err != nil {
		return nil, err
	}
	terms := defaultPaymentTermsDays
	if input.PaymentTermsDays != nil {
		terms = *input.PaymentTermsDays
	}

	sup, err := scanSupplier(s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, contact_person, phone, email, address, gstin, drug_license_no, payment_terms_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+supplierColumns,
		input.Name, toPtr(input.ContactPerson), toPtr(input.Phone), toPtr(input.Email),
		toPtr(input.Address), toPtr(input.GSTIN), toPtr(input.DrugLicenseNo), terms,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("supplier with GSTIN %s: %w", input.GSTIN, ErrDuplicate)
		}
		return nil, fmt.Errorf("create supplier %q: %w", input.Name, err)
	}
	s.logger.WithFields(logrus.Fields{"supplier_id": sup.ID, "name": sup.Name}).Info("supplier created")
	return sup, nil
}

// UpdateSupplier replaces the editable fields of an existing supplier.
// Payment terms are kept when not given.
func (s *supplierService) UpdateSupplier(ctx context.Context, id int, input SupplierInput) (*Supplier, error) {
	input, err := normalizeSupplierInput(input)
	if err != nil {
		return nil, err
	}

	sup, err := scanSupplier(s.pool.QueryRow(ctx, `
		UPDATE suppliers
		SET name = $2, contact_person = $3, phone = $4, email = $5, address = $6,
		    gstin = $7, drug_license_no = $8, payment_terms_days = COALESCE($9, payment_terms_days),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+supplierColumns,
		id, input.Name, toPtr(input.ContactPerson), toPtr(input.Phone), toPtr(input.Email),
		toPtr(input.Address), toPtr(input.GSTIN), toPtr(input.DrugLicenseNo), input.PaymentTermsDays,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("supplier with GSTIN %s: %w", input.GSTIN, ErrDuplicate)
		}
		return nil, fmt.Errorf("update supplier %d: %w", id, err)
	}
	return sup, nil
}

// DeactivateSupplier marks a supplier inactive. Its purchases and returns stay linked.
func (s *supplierService) DeactivateSupplier(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE suppliers SET is_active = false, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deactivate supplier %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("supplier %d: %w", id, ErrNotFound)
	}
	s.logger.WithField("supplier_id", id).Info("supplier deactivated")
	return nil
}

// GetSupplier returns a supplier by ID.
func (s *supplierService) GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	sup, err := scanSupplier(s.pool.QueryRow(ctx,
		"SELECT "+supplierColumns+" FROM suppliers WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get supplier %d: %w", id, err)
	}
	return sup, nil
}

// ListSuppliers returns active suppliers matching search, ordered by name.
func (s *supplierService) ListSuppliers(ctx context.Context, search string, limit int) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers
		WHERE is_active = true
		  AND ($1 = '' OR name ILIKE $2 OR phone ILIKE $2 OR gstin ILIKE $2)
		ORDER BY name
		LIMIT $3`,
		strings.TrimSpace(search), likePattern(search), clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, *sup)
	}
	return suppliers, rows.Err()
}
