package ledger_test

import (
	"testing"
	"time"

	"medbill/internal/ledger"
)

func TestFormatDocumentNumber(t *testing.T) {
	at := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		prefix string
		seq    int64
		want   string
	}{
		{ledger.SalesReturnPrefix, 1, "SR26030001"},
		{ledger.SupplierReturnPrefix, 42, "PR26030042"},
		{ledger.BillPrefix, 9999, "BL26039999"},
		{ledger.SalesReturnPrefix, 10000, "SR260310000"},
	}
	for _, tt := range tests {
		if got := ledger.FormatDocumentNumber(tt.prefix, at, tt.seq); got != tt.want {
			t.Errorf("FormatDocumentNumber(%s, %d) = %s, want %s", tt.prefix, tt.seq, got, tt.want)
		}
	}
}
