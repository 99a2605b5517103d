package core

import (
	"context"
	"time"
)

// Supplier is a wholesaler the pharmacy buys from. Suppliers are deactivated,
// never deleted, so purchase and return history keeps its references.
type Supplier struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	ContactPerson    *string   `json:"contact_person,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	Email            *string   `json:"email,omitempty"`
	Address          *string   `json:"address,omitempty"`
	GSTIN            *string   `json:"gstin,omitempty"`
	DrugLicenseNo    *string   `json:"drug_license_no,omitempty"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SupplierInput holds the editable supplier fields.
type SupplierInput struct {
	Name             string `json:"name" validate:"required"`
	ContactPerson    string `json:"contact_person"`
	Phone            string `json:"phone"`
	Email            string `json:"email" validate:"omitempty,email"`
	Address          string `json:"address"`
	GSTIN            string `json:"gstin" validate:"omitempty,len=15,alphanum"`
	DrugLicenseNo    string `json:"drug_license_no"`
	PaymentTermsDays *int   `json:"payment_terms_days" validate:"omitempty,gte=0,lte=365"`
}

// SupplierService provides supplier master data operations.
type SupplierService interface {
	// CreateSupplier inserts an active supplier. Payment terms default to 30 days.
	CreateSupplier(ctx context.Context, input SupplierInput) (*Supplier, error)

	// UpdateSupplier replaces the editable fields of a supplier.
	UpdateSupplier(ctx context.Context, id int, input SupplierInput) (*Supplier, error)

	// DeactivateSupplier soft-deletes a supplier.
	DeactivateSupplier(ctx context.Context, id int) error

	// GetSupplier returns a supplier by ID, active or not.
	GetSupplier(ctx context.Context, id int) (*Supplier, error)

	// ListSuppliers returns active suppliers whose name, phone or GSTIN
	// contains search (all when empty), ordered by name.
	ListSuppliers(ctx context.Context, search string, limit int) ([]Supplier, error)
}
