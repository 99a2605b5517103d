package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Reversal is the money and stock effect of one returned line.
// Amount is tax inclusive; GST holds its split.
type Reversal struct {
	Pieces     int64
	UnitPrice  decimal.Decimal
	Amount     decimal.Decimal
	GST        GSTSplit
	StockDelta int64
}

// SalesReturnLine describes a bill line being returned by a customer.
// Prices are per strip; quantities are pieces.
type SalesReturnLine struct {
	SellingPrice   decimal.Decimal
	MRP            decimal.Decimal
	PackSize       int
	GSTRate        decimal.Decimal
	SoldPieces     int64
	ReturnedPieces int64
	ReturnPieces   int64
}

// StripPrice is the selling price, or MRP when no selling price was recorded.
func (l SalesReturnLine) StripPrice() decimal.Decimal {
	if l.SellingPrice.IsPositive() {
		return l.SellingPrice
	}
	return l.MRP
}

// Returnable is how many pieces of the line can still come back.
func (l SalesReturnLine) Returnable() int64 {
	if r := l.SoldPieces - l.ReturnedPieces; r > 0 {
		return r
	}
	return 0
}

// SalesReturn computes the refund for a customer return. Stock goes back up.
func SalesReturn(l SalesReturnLine) (Reversal, error) {
	if l.ReturnPieces <= 0 {
		return Reversal{}, ErrInvalidQuantity
	}
	if err := ValidateGSTRate(l.GSTRate); err != nil {
		return Reversal{}, err
	}
	if l.ReturnPieces > l.Returnable() {
		return Reversal{}, fmt.Errorf("%w: requested %d, returnable %d", ErrExcessReturnQuantity, l.ReturnPieces, l.Returnable())
	}

	perPiece := PricePerPiece(l.StripPrice(), l.PackSize)
	amount := perPiece.Mul(decimal.NewFromInt(l.ReturnPieces))
	return Reversal{
		Pieces:     l.ReturnPieces,
		UnitPrice:  perPiece,
		Amount:     amount,
		GST:        InclusiveSplit(amount, l.GSTRate),
		StockDelta: l.ReturnPieces,
	}, nil
}

// SupplierReturnLine describes stock sent back to a supplier from one batch.
// Quantity is in the batch's stock unit (pieces).
type SupplierReturnLine struct {
	MRP      decimal.Decimal
	GSTRate  decimal.Decimal
	OnHand   int64
	Quantity int64
}

// SupplierReturn computes the charge-back for a supplier return. Stock goes down.
func SupplierReturn(l SupplierReturnLine) (Reversal, error) {
	if l.Quantity <= 0 {
		return Reversal{}, ErrInvalidQuantity
	}
	if err := ValidateGSTRate(l.GSTRate); err != nil {
		return Reversal{}, err
	}
	if l.Quantity > l.OnHand {
		return Reversal{}, fmt.Errorf("%w: requested %d, on hand %d", ErrInsufficientStock, l.Quantity, l.OnHand)
	}

	amount := l.MRP.Mul(decimal.NewFromInt(l.Quantity))
	return Reversal{
		Pieces:     l.Quantity,
		UnitPrice:  l.MRP,
		Amount:     amount,
		GST:        InclusiveSplit(amount, l.GSTRate),
		StockDelta: -l.Quantity,
	}, nil
}

// SumReversals totals the rounded GST splits of several reversals.
func SumReversals(rs []Reversal) GSTSplit {
	splits := make([]GSTSplit, len(rs))
	for i, r := range rs {
		splits[i] = r.GST
	}
	return DocumentTotals(splits)
}
