package core

import "github.com/shopspring/decimal"

// PaymentStatus tracks how much of a supplier invoice has been settled.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

// DerivePaymentStatus computes the status from the amount paid against the
// invoice grand total.
func DerivePaymentStatus(paid, grandTotal decimal.Decimal) PaymentStatus {
	switch {
	case !paid.IsPositive():
		return PaymentPending
	case paid.GreaterThanOrEqual(grandTotal):
		return PaymentPaid
	default:
		return PaymentPartial
	}
}

// PaymentMode is how a customer settled a bill.
type PaymentMode string

const (
	PaymentCash PaymentMode = "CASH"
	PaymentCard PaymentMode = "CARD"
	PaymentUPI  PaymentMode = "UPI"
)

// dateLayout is the wire and CLI format for calendar dates.
const dateLayout = "2006-01-02"
