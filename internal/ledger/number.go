package ledger

import (
	"fmt"
	"time"
)

// Document prefixes. Each is exactly two letters.
const (
	SalesReturnPrefix    = "SR"
	SupplierReturnPrefix = "PR"
	BillPrefix           = "BL"
)

// Period is the YYMM bucket a document number is sequenced in.
func Period(at time.Time) string {
	return at.Format("0601")
}

// FormatDocumentNumber renders prefix + YY + MM + a zero-padded 4-digit sequence.
func FormatDocumentNumber(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%04d", prefix, Period(at), seq)
}
