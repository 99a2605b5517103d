package ledger_test

import (
	"errors"
	"testing"
	"time"

	"medbill/internal/ledger"

	"github.com/shopspring/decimal"
)

func intPtr(v int) *int { return &v }

func baseLine() ledger.BatchLine {
	return ledger.BatchLine{
		MedicineID:    7,
		BatchNumber:   "AB123",
		ExpiryDate:    time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC),
		Strips:        10,
		FreeStrips:    2,
		PackSize:      10,
		PurchasePrice: d("50"),
		MRP:           d("80"),
		SellingPrice:  d("75"),
		GSTRate:       decimal.NewNullDecimal(d("12")),
		Rack:          "R1",
		Box:           "B4",
		PurchaseID:    intPtr(11),
		SupplierID:    intPtr(3),
	}
}

func TestResolveBatch_CreatesWhenAbsent(t *testing.T) {
	action, err := ledger.ResolveBatch(nil, baseLine())
	if err != nil {
		t.Fatalf("ResolveBatch failed: %v", err)
	}
	if action.Kind != ledger.ActionCreate {
		t.Fatalf("kind = %s, want create", action.Kind)
	}
	b := action.Batch
	if b.Quantity != 120 || action.AddPieces != 120 {
		t.Errorf("quantity = %d (add %d), want 120", b.Quantity, action.AddPieces)
	}
	if !b.GSTRate.Equal(d("12")) {
		t.Errorf("gst rate = %s, want 12", b.GSTRate)
	}
	if b.Rack != "R1" || b.Box != "B4" {
		t.Errorf("location = %q/%q", b.Rack, b.Box)
	}
	if !b.IsActive {
		t.Error("new batch must be active")
	}
}

func TestResolveBatch_DefaultGSTRate(t *testing.T) {
	line := baseLine()
	line.GSTRate = decimal.NullDecimal{}
	action, err := ledger.ResolveBatch(nil, line)
	if err != nil {
		t.Fatalf("ResolveBatch failed: %v", err)
	}
	if !action.Batch.GSTRate.Equal(ledger.DefaultGSTRate) {
		t.Errorf("gst rate = %s, want default %s", action.Batch.GSTRate, ledger.DefaultGSTRate)
	}

	line.GSTRate = decimal.NewNullDecimal(decimal.Zero)
	action, err = ledger.ResolveBatch(nil, line)
	if err != nil {
		t.Fatalf("ResolveBatch failed: %v", err)
	}
	if !action.Batch.GSTRate.IsZero() {
		t.Errorf("explicit zero rate replaced by %s", action.Batch.GSTRate)
	}
}

func TestResolveBatch_ScenarioB(t *testing.T) {
	existing := &ledger.Batch{
		ID:            42,
		MedicineID:    7,
		BatchNumber:   "AB123",
		ExpiryDate:    time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC),
		PurchasePrice: d("45"),
		MRP:           d("70"),
		SellingPrice:  d("68"),
		Quantity:      100,
		PackSize:      10,
		GSTRate:       d("5"),
		Rack:          "OLD",
		Box:           "OLDBOX",
		IsActive:      true,
	}
	line := baseLine()
	line.Strips = 5
	line.FreeStrips = 0
	line.Rack = ""
	line.Box = "NEWBOX"

	action, err := ledger.ResolveBatch(existing, line)
	if err != nil {
		t.Fatalf("ResolveBatch failed: %v", err)
	}
	if action.Kind != ledger.ActionIncrement || action.BatchID != 42 {
		t.Fatalf("action = %s/%d, want increment/42", action.Kind, action.BatchID)
	}
	if action.AddPieces != 50 {
		t.Errorf("add pieces = %d, want 50", action.AddPieces)
	}
	b := action.Batch
	if b.Quantity != 150 {
		t.Errorf("resulting quantity = %d, want 150", b.Quantity)
	}
	if !b.PurchasePrice.Equal(d("50")) || !b.MRP.Equal(d("80")) || !b.SellingPrice.Equal(d("75")) {
		t.Errorf("prices not overwritten: %s/%s/%s", b.PurchasePrice, b.MRP, b.SellingPrice)
	}
	if b.Rack != "OLD" {
		t.Errorf("empty rack overwrote stored location: %q", b.Rack)
	}
	if b.Box != "NEWBOX" {
		t.Errorf("box = %q, want NEWBOX", b.Box)
	}
	if !b.GSTRate.Equal(d("5")) {
		t.Errorf("gst rate changed retroactively to %s", b.GSTRate)
	}
	if !b.ExpiryDate.Equal(existing.ExpiryDate) {
		t.Errorf("expiry changed to %s", b.ExpiryDate)
	}
	if b.PurchaseID == nil || *b.PurchaseID != 11 || b.SupplierID == nil || *b.SupplierID != 3 {
		t.Error("batch not re-linked to the new purchase and supplier")
	}
	if existing.Quantity != 100 {
		t.Error("ResolveBatch mutated the existing batch")
	}
}

func TestResolveBatch_SecondResolutionIncrements(t *testing.T) {
	line := baseLine()
	first, err := ledger.ResolveBatch(nil, line)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	stored := first.Batch
	stored.ID = 1

	second, err := ledger.ResolveBatch(&stored, line)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if second.Kind != ledger.ActionIncrement {
		t.Fatalf("second resolution kind = %s, want increment", second.Kind)
	}
	if second.Batch.Quantity != 240 {
		t.Errorf("quantity after two lines = %d, want 240", second.Batch.Quantity)
	}
}

func TestResolveBatch_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ledger.BatchLine)
		target error
	}{
		{"no quantity", func(l *ledger.BatchLine) { l.Strips, l.FreeStrips = 0, 0 }, ledger.ErrInvalidQuantity},
		{"negative strips", func(l *ledger.BatchLine) { l.Strips = -1 }, ledger.ErrInvalidQuantity},
		{"negative rate", func(l *ledger.BatchLine) { l.GSTRate = decimal.NewNullDecimal(d("-5")) }, ledger.ErrInvalidGSTRate},
		{"blank batch", func(l *ledger.BatchLine) { l.BatchNumber = "  " }, nil},
		{"no medicine", func(l *ledger.BatchLine) { l.MedicineID = 0 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := baseLine()
			tt.mutate(&line)
			_, err := ledger.ResolveBatch(nil, line)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error %v is not %v", err, tt.target)
			}
		})
	}
}

func TestResolveBatch_KeyMismatch(t *testing.T) {
	existing := &ledger.Batch{ID: 9, MedicineID: 7, BatchNumber: "ab123", Quantity: 10}
	_, err := ledger.ResolveBatch(existing, baseLine())
	if !errors.Is(err, ledger.ErrBatchKeyMismatch) {
		t.Errorf("expected ErrBatchKeyMismatch for case-different batch code, got %v", err)
	}
}
