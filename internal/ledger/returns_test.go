package ledger_test

import (
	"errors"
	"testing"

	"medbill/internal/ledger"

	"github.com/shopspring/decimal"
)

func TestSalesReturn_ScenarioC(t *testing.T) {
	r, err := ledger.SalesReturn(ledger.SalesReturnLine{
		SellingPrice: d("120"),
		MRP:          d("130"),
		PackSize:     10,
		GSTRate:      d("12"),
		SoldPieces:   30,
		ReturnPieces: 20,
	})
	if err != nil {
		t.Fatalf("SalesReturn failed: %v", err)
	}
	if !r.UnitPrice.Equal(d("12")) {
		t.Errorf("price per piece = %s, want 12", r.UnitPrice)
	}
	if !r.Amount.Equal(d("240")) {
		t.Errorf("amount = %s, want 240", r.Amount)
	}
	rounded := r.GST.Rounded()
	if !rounded.TotalGST.Equal(d("25.71")) {
		t.Errorf("gst = %s, want 25.71", rounded.TotalGST)
	}
	if !rounded.CGST.Equal(d("12.86")) || !rounded.SGST.Equal(d("12.86")) {
		t.Errorf("cgst/sgst = %s/%s, want 12.86", rounded.CGST, rounded.SGST)
	}
	if r.StockDelta != 20 {
		t.Errorf("stock delta = %d, want +20", r.StockDelta)
	}
}

func TestSalesReturn_FallsBackToMRP(t *testing.T) {
	r, err := ledger.SalesReturn(ledger.SalesReturnLine{
		MRP:          d("50"),
		PackSize:     10,
		GSTRate:      d("5"),
		SoldPieces:   10,
		ReturnPieces: 4,
	})
	if err != nil {
		t.Fatalf("SalesReturn failed: %v", err)
	}
	if !r.Amount.Equal(d("20")) {
		t.Errorf("amount = %s, want 20", r.Amount)
	}
}

func TestSalesReturn_Limits(t *testing.T) {
	line := ledger.SalesReturnLine{
		SellingPrice:   d("100"),
		PackSize:       10,
		GSTRate:        d("12"),
		SoldPieces:     30,
		ReturnedPieces: 25,
	}

	line.ReturnPieces = 6
	if _, err := ledger.SalesReturn(line); !errors.Is(err, ledger.ErrExcessReturnQuantity) {
		t.Errorf("returning 6 of 5 remaining: got %v, want ErrExcessReturnQuantity", err)
	}

	line.ReturnPieces = 5
	if _, err := ledger.SalesReturn(line); err != nil {
		t.Errorf("returning exactly the remainder failed: %v", err)
	}

	line.ReturnPieces = 0
	if _, err := ledger.SalesReturn(line); !errors.Is(err, ledger.ErrInvalidQuantity) {
		t.Errorf("zero quantity: got %v, want ErrInvalidQuantity", err)
	}
}

func TestSupplierReturn_ScenarioD(t *testing.T) {
	line := ledger.SupplierReturnLine{
		MRP:      d("50"),
		GSTRate:  d("5"),
		OnHand:   100,
		Quantity: 30,
	}
	r, err := ledger.SupplierReturn(line)
	if err != nil {
		t.Fatalf("SupplierReturn failed: %v", err)
	}
	if !r.Amount.Equal(d("1500")) {
		t.Errorf("amount = %s, want 1500", r.Amount)
	}
	if got := r.GST.Rounded().TotalGST; !got.Equal(d("71.43")) {
		t.Errorf("gst = %s, want 71.43", got)
	}
	if line.OnHand+r.StockDelta != 70 {
		t.Errorf("on hand after return = %d, want 70", line.OnHand+r.StockDelta)
	}

	line.Quantity = 150
	if _, err := ledger.SupplierReturn(line); !errors.Is(err, ledger.ErrInsufficientStock) {
		t.Errorf("returning 150 of 100: got %v, want ErrInsufficientStock", err)
	}
}

func TestSupplierReturn_ZeroRate(t *testing.T) {
	r, err := ledger.SupplierReturn(ledger.SupplierReturnLine{MRP: d("10"), GSTRate: decimal.Zero, OnHand: 5, Quantity: 5})
	if err != nil {
		t.Fatalf("SupplierReturn failed: %v", err)
	}
	if !r.GST.TotalGST.IsZero() {
		t.Errorf("gst = %s, want exactly 0", r.GST.TotalGST)
	}
}

func TestSumReversals(t *testing.T) {
	a, _ := ledger.SupplierReturn(ledger.SupplierReturnLine{MRP: d("50"), GSTRate: d("5"), OnHand: 100, Quantity: 30})
	b, _ := ledger.SupplierReturn(ledger.SupplierReturnLine{MRP: d("10"), GSTRate: decimal.Zero, OnHand: 10, Quantity: 10})
	sum := ledger.SumReversals([]ledger.Reversal{a, b})
	if !sum.Total.Equal(d("1600")) {
		t.Errorf("total = %s, want 1600", sum.Total)
	}
	if want := a.GST.Rounded().TotalGST; !sum.TotalGST.Equal(want) {
		t.Errorf("total gst = %s, want %s", sum.TotalGST, want)
	}
}
