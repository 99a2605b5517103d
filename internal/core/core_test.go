package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"medbill/internal/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func hasError(errs ValidationErrors, line int, field string) bool {
	for _, e := range errs {
		if e.Line == line && e.Field == field {
			return true
		}
	}
	return false
}

func validLine() PurchaseItemInput {
	return PurchaseItemInput{
		MedicineID:    1,
		BatchNumber:   "B1",
		ExpiryDate:    "2028-06-30",
		Quantity:      10,
		PurchasePrice: dec("80"),
		MRP:           dec("100"),
	}
}

func TestValidatePurchase_CollectsEveryLine(t *testing.T) {
	bad := validLine()
	bad.MedicineID = 0
	bad.Quantity = 0
	bad.MRP = decimal.Zero

	worse := validLine()
	worse.ExpiryDate = "2028-13-01"
	worse.PurchasePrice = dec("-1")
	worse.GSTRate = decimal.NewNullDecimal(dec("-5"))

	_, err := validatePurchase(PurchaseInput{
		InvoiceNumber: "INV-1",
		InvoiceDate:   "2026-10-01",
		Items:         []PurchaseItemInput{validLine(), bad, worse},
	})

	var errs ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	want := []struct {
		line  int
		field string
	}{
		{0, "supplier_id"},
		{2, "medicine_id"},
		{2, "quantity"},
		{2, "mrp"},
		{3, "expiry_date"},
		{3, "purchase_price"},
		{3, "gst_rate"},
	}
	for _, w := range want {
		if !hasError(errs, w.line, w.field) {
			t.Errorf("missing error for line %d field %s in %v", w.line, w.field, errs)
		}
	}
	for _, e := range errs {
		if e.Line == 1 {
			t.Errorf("line 1 is valid, got %v", e)
		}
	}
}

func TestValidatePurchase_FreeOnlyLineMayHaveZeroPrice(t *testing.T) {
	line := validLine()
	line.Quantity = 0
	line.FreeQuantity = 2
	line.PurchasePrice = decimal.Zero

	v, err := validatePurchase(PurchaseInput{
		SupplierID:    1,
		InvoiceNumber: "INV-1",
		InvoiceDate:   "2026-10-01",
		Items:         []PurchaseItemInput{line},
	})
	if err != nil {
		t.Fatalf("expected free-only line to validate, got %v", err)
	}
	if v.expiry[0].Format(dateLayout) != "2028-06-30" {
		t.Errorf("expected parsed expiry, got %v", v.expiry[0])
	}

	line.Quantity = 1
	_, err = validatePurchase(PurchaseInput{
		SupplierID:    1,
		InvoiceNumber: "INV-1",
		InvoiceDate:   "2026-10-01",
		Items:         []PurchaseItemInput{line},
	})
	var errs ValidationErrors
	if !errors.As(err, &errs) || !hasError(errs, 1, "purchase_price") {
		t.Errorf("expected purchase_price error for a paid line at zero price, got %v", err)
	}
}

func TestValidatePurchase_RequiresItems(t *testing.T) {
	_, err := validatePurchase(PurchaseInput{SupplierID: 1, InvoiceNumber: "INV-1", InvoiceDate: "2026-10-01"})
	var errs ValidationErrors
	if !errors.As(err, &errs) || !hasError(errs, 0, "items") {
		t.Errorf("expected items error, got %v", err)
	}
}

func TestValidatePurchase_DoesNotMutateInput(t *testing.T) {
	line := validLine()
	line.BatchNumber = "  B1  "
	items := []PurchaseItemInput{line}

	v, err := validatePurchase(PurchaseInput{
		SupplierID:    1,
		InvoiceNumber: " INV-1 ",
		InvoiceDate:   "2026-10-01",
		Items:         items,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Items[0].BatchNumber != "B1" || v.InvoiceNumber != "INV-1" {
		t.Errorf("expected trimmed values, got %q %q", v.Items[0].BatchNumber, v.InvoiceNumber)
	}
	if items[0].BatchNumber != "  B1  " {
		t.Errorf("caller's items were modified: %q", items[0].BatchNumber)
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	tests := []struct {
		paid, total string
		want        PaymentStatus
	}{
		{"0", "1120.00", PaymentPending},
		{"-1", "1120.00", PaymentPending},
		{"500", "1120.00", PaymentPartial},
		{"1120.00", "1120.00", PaymentPaid},
		{"1200", "1120.00", PaymentPaid},
	}
	for _, tt := range tests {
		if got := DerivePaymentStatus(dec(tt.paid), dec(tt.total)); got != tt.want {
			t.Errorf("paid %s of %s: expected %s, got %s", tt.paid, tt.total, tt.want, got)
		}
	}
	if PaymentStatus("SETTLED").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"para":     "%para%",
		"  para  ": "%para%",
		"50%":      `%50\%%`,
		"b_12":     `%b\_12%`,
		`c:\x`:     `%c:\\x%`,
		"":         "%%",
	}
	for in, want := range tests {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{0: 50, -3: 50, 20: 20, 500: 500, 10000: 500} {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestIdempotencyKey(t *testing.T) {
	if got := idempotencyKey(" abc "); got != "abc" {
		t.Errorf("expected trimmed caller key, got %q", got)
	}
	generated := idempotencyKey("")
	if _, err := uuid.Parse(generated); err != nil {
		t.Errorf("expected generated UUID, got %q", generated)
	}
	if generated == idempotencyKey("") {
		t.Error("expected a fresh key per call")
	}
}

func TestStockLevelFillStrips(t *testing.T) {
	sl := StockLevel{PackSize: 15, Pieces: 47, ReorderLevel: 5}
	sl.fillStrips()
	if sl.Strips != 3 || sl.LoosePieces != 2 || !sl.BelowReorder {
		t.Errorf("unexpected breakdown %+v", sl)
	}

	// Zero pack size falls back to the default strip size.
	sl = StockLevel{PackSize: 0, Pieces: 125, ReorderLevel: 10}
	sl.fillStrips()
	if sl.Strips != 12 || sl.LoosePieces != 5 || sl.BelowReorder {
		t.Errorf("unexpected breakdown %+v", sl)
	}
}

func TestErrorFormatting(t *testing.T) {
	errs := ValidationErrors{
		{Field: "supplier_id", Message: "is required"},
		{Line: 2, Field: "mrp", Message: "is required"},
	}
	want := "validation failed: supplier_id: is required; line 2: mrp: is required"
	if errs.Error() != want {
		t.Errorf("got %q", errs.Error())
	}

	err := lineErr(3, "lock batch", ledger.ErrInsufficientStock)
	if !errors.Is(err, ledger.ErrInsufficientStock) {
		t.Error("LineError should unwrap to its cause")
	}
	var le *LineError
	if !errors.As(err, &le) || le.Line != 3 {
		t.Errorf("expected LineError at line 3, got %v", err)
	}
}

func TestCheckStructUsesJSONNames(t *testing.T) {
	terms := 400
	errs := checkStruct(4, SupplierInput{Email: "nope", GSTIN: "short", PaymentTermsDays: &terms})
	for _, field := range []string{"name", "email", "gstin", "payment_terms_days"} {
		if !hasError(errs, 4, field) {
			t.Errorf("missing %s error in %v", field, errs)
		}
	}
}

func TestPurchaseConflict(t *testing.T) {
	unique := func(constraint string) error {
		return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
	}
	tests := []struct {
		name string
		err  error
		want purchaseConflictKind
	}{
		{"invoice number", fmt.Errorf("insert purchase: %w", unique(purchaseInvoiceConstraint)), conflictInvoiceNumber},
		{"idempotency key", fmt.Errorf("insert purchase: %w", unique(purchaseIdempotencyConstraint)), conflictIdempotencyKey},
		{"batch line", lineErr(2, "insert batch", unique("batches_medicine_id_batch_number_key")), conflictNone},
		{"other pg error", &pgconn.PgError{Code: "23503", ConstraintName: purchaseInvoiceConstraint}, conflictNone},
		{"plain error", errors.New("connection reset"), conflictNone},
	}
	for _, tt := range tests {
		if got := purchaseConflict(tt.err); got != tt.want {
			t.Errorf("%s: purchaseConflict() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
