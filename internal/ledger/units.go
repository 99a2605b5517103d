package ledger

import "github.com/shopspring/decimal"

// DefaultPackSize is the number of pieces per strip assumed when a product or
// purchase line carries no usable pack size.
const DefaultPackSize = 10

// NormalizePackSize returns n, or DefaultPackSize when n is not positive.
func NormalizePackSize(n int) int {
	if n <= 0 {
		return DefaultPackSize
	}
	return n
}

// PiecesFromStrips converts paid plus free strips into pieces, the unit in
// which batch stock is kept.
func PiecesFromStrips(strips, freeStrips int64, packSize int) int64 {
	return (strips + freeStrips) * int64(NormalizePackSize(packSize))
}

// LineCost is the purchase cost of a line. Free strips never contribute.
func LineCost(strips int64, pricePerStrip decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(strips).Mul(pricePerStrip)
}

// PricePerPiece splits a per-strip price across the pack.
func PricePerPiece(stripPrice decimal.Decimal, packSize int) decimal.Decimal {
	return stripPrice.Div(decimal.NewFromInt(int64(NormalizePackSize(packSize))))
}
