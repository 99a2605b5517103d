package ledger

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places persisted for currency amounts.
const MoneyPlaces = 2

var (
	// DefaultGSTRate applies to a new batch whose purchase line names no rate.
	DefaultGSTRate = decimal.NewFromInt(12)

	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// RoundMoney rounds half away from zero to MoneyPlaces. Amounts are only
// rounded when they leave the ledger for storage.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// GSTSplit is a tax-exclusive net amount, its CGST/SGST halves and the
// tax-inclusive total.
type GSTSplit struct {
	Net      decimal.Decimal `json:"net"`
	CGST     decimal.Decimal `json:"cgst"`
	SGST     decimal.Decimal `json:"sgst"`
	TotalGST decimal.Decimal `json:"total_gst"`
	Total    decimal.Decimal `json:"total"`
}

// ValidateGSTRate rejects negative rates.
func ValidateGSTRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return ErrInvalidGSTRate
	}
	return nil
}

// ExclusiveSplit adds GST on top of a tax-exclusive subtotal (purchase entry).
func ExclusiveSplit(subtotal, ratePercent decimal.Decimal) GSTSplit {
	if ratePercent.IsZero() {
		return GSTSplit{Net: subtotal, CGST: decimal.Zero, SGST: decimal.Zero, TotalGST: decimal.Zero, Total: subtotal}
	}
	half := subtotal.Mul(ratePercent.Div(two)).Div(hundred)
	totalGST := half.Add(half)
	return GSTSplit{
		Net:      subtotal,
		CGST:     half,
		SGST:     half,
		TotalGST: totalGST,
		Total:    subtotal.Add(totalGST),
	}
}

// InclusiveSplit extracts the GST already contained in a tax-inclusive
// amount (retail prices, return reversals).
func InclusiveSplit(amount, ratePercent decimal.Decimal) GSTSplit {
	if ratePercent.IsZero() {
		return GSTSplit{Net: amount, CGST: decimal.Zero, SGST: decimal.Zero, TotalGST: decimal.Zero, Total: amount}
	}
	gst := amount.Mul(ratePercent).Div(hundred.Add(ratePercent))
	half := gst.Div(two)
	return GSTSplit{
		Net:      amount.Sub(gst),
		CGST:     half,
		SGST:     half,
		TotalGST: gst,
		Total:    amount,
	}
}

// Add sums two splits field by field.
func (s GSTSplit) Add(o GSTSplit) GSTSplit {
	return GSTSplit{
		Net:      s.Net.Add(o.Net),
		CGST:     s.CGST.Add(o.CGST),
		SGST:     s.SGST.Add(o.SGST),
		TotalGST: s.TotalGST.Add(o.TotalGST),
		Total:    s.Total.Add(o.Total),
	}
}

// Rounded rounds every field independently with RoundMoney.
func (s GSTSplit) Rounded() GSTSplit {
	return GSTSplit{
		Net:      RoundMoney(s.Net),
		CGST:     RoundMoney(s.CGST),
		SGST:     RoundMoney(s.SGST),
		TotalGST: RoundMoney(s.TotalGST),
		Total:    RoundMoney(s.Total),
	}
}

// DocumentTotals sums the rounded form of every line, so a stored header
// always equals the sum of its stored lines.
func DocumentTotals(lines []GSTSplit) GSTSplit {
	var total GSTSplit
	for _, l := range lines {
		total = total.Add(l.Rounded())
	}
	return total
}

// PurchaseLineSplit taxes the paid strips of a purchase line at ratePercent.
func PurchaseLineSplit(strips int64, pricePerStrip, ratePercent decimal.Decimal) GSTSplit {
	return ExclusiveSplit(LineCost(strips, pricePerStrip), ratePercent)
}
