package ledger_test

import (
	"testing"

	"medbill/internal/ledger"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestExclusiveSplit(t *testing.T) {
	tests := []struct {
		subtotal string
		rate     string
		cgst     string
		total    string
	}{
		{"500", "12", "30", "560"},
		{"1000", "18", "90", "1180"},
		{"200", "5", "5", "210"},
		{"750", "0", "0", "750"},
		{"0", "12", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.subtotal+"@"+tt.rate, func(t *testing.T) {
			got := ledger.ExclusiveSplit(d(tt.subtotal), d(tt.rate))
			if !got.CGST.Equal(d(tt.cgst)) {
				t.Errorf("CGST = %s, want %s", got.CGST, tt.cgst)
			}
			if !got.CGST.Equal(got.SGST) {
				t.Errorf("CGST %s != SGST %s", got.CGST, got.SGST)
			}
			if !got.Total.Equal(d(tt.total)) {
				t.Errorf("Total = %s, want %s", got.Total, tt.total)
			}
			if !got.Total.Equal(got.Net.Add(got.TotalGST)) {
				t.Errorf("Total %s != Net %s + GST %s", got.Total, got.Net, got.TotalGST)
			}
		})
	}
}

func TestExclusiveSplit_Property(t *testing.T) {
	rates := []string{"0", "5", "12", "18"}
	subtotals := []string{"0", "0.01", "1", "99.99", "123.45", "5000", "100000.5"}
	for _, r := range rates {
		for _, s := range subtotals {
			got := ledger.ExclusiveSplit(d(s), d(r))
			if !got.Total.Equal(d(s).Add(got.TotalGST)) {
				t.Errorf("%s@%s: total %s != subtotal + gst %s", s, r, got.Total, got.TotalGST)
			}
			if !got.CGST.Equal(got.SGST) {
				t.Errorf("%s@%s: cgst %s != sgst %s", s, r, got.CGST, got.SGST)
			}
		}
	}
}

func TestInclusiveSplit_RoundTrip(t *testing.T) {
	rates := []string{"5", "12", "18", "28"}
	subtotals := []string{"1", "10.10", "333.33", "500", "1234.56", "99999.99"}
	for _, r := range rates {
		for _, s := range subtotals {
			excl := ledger.ExclusiveSplit(d(s), d(r))
			incl := ledger.InclusiveSplit(excl.Total, d(r))
			if !ledger.RoundMoney(incl.Net).Equal(ledger.RoundMoney(d(s))) {
				t.Errorf("%s@%s: round trip net %s", s, r, incl.Net)
			}
			if !ledger.RoundMoney(incl.TotalGST).Equal(ledger.RoundMoney(excl.TotalGST)) {
				t.Errorf("%s@%s: round trip gst %s, want %s", s, r, incl.TotalGST, excl.TotalGST)
			}
		}
	}
}

func TestSplits_ZeroRateIsExactlyZero(t *testing.T) {
	for _, got := range []ledger.GSTSplit{
		ledger.InclusiveSplit(d("240"), decimal.Zero),
		ledger.ExclusiveSplit(d("240"), decimal.Zero),
	} {
		if !got.TotalGST.IsZero() || !got.CGST.IsZero() || !got.SGST.IsZero() {
			t.Errorf("expected zero tax, got %+v", got)
		}
		if !got.Net.Equal(d("240")) || !got.Total.Equal(d("240")) {
			t.Errorf("expected net = total = 240, got %+v", got)
		}
	}
}

func TestGSTSplit_Rounded(t *testing.T) {
	got := ledger.InclusiveSplit(d("240"), d("12")).Rounded()
	if !got.TotalGST.Equal(d("25.71")) {
		t.Errorf("TotalGST = %s, want 25.71", got.TotalGST)
	}
	if !got.CGST.Equal(d("12.86")) || !got.SGST.Equal(d("12.86")) {
		t.Errorf("CGST/SGST = %s/%s, want 12.86", got.CGST, got.SGST)
	}
	if !got.Net.Equal(d("214.29")) {
		t.Errorf("Net = %s, want 214.29", got.Net)
	}
}

func TestRoundMoney_HalfUp(t *testing.T) {
	tests := map[string]string{
		"1.005":  "1.01",
		"1.004":  "1",
		"2.5":    "2.5",
		"12.855": "12.86",
	}
	for in, want := range tests {
		if got := ledger.RoundMoney(d(in)); !got.Equal(d(want)) {
			t.Errorf("RoundMoney(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestValidateGSTRate(t *testing.T) {
	if err := ledger.ValidateGSTRate(d("-1")); err == nil {
		t.Error("expected error for negative rate")
	}
	if err := ledger.ValidateGSTRate(decimal.Zero); err != nil {
		t.Errorf("zero rate rejected: %v", err)
	}
}

func TestPurchaseLineSplit_ScenarioA(t *testing.T) {
	pieces := ledger.PiecesFromStrips(10, 2, 10)
	if pieces != 120 {
		t.Errorf("pieces = %d, want 120", pieces)
	}
	got := ledger.PurchaseLineSplit(10, d("50"), d("12"))
	if !got.Net.Equal(d("500")) {
		t.Errorf("subtotal = %s, want 500", got.Net)
	}
	if !got.CGST.Equal(d("30")) || !got.SGST.Equal(d("30")) {
		t.Errorf("cgst/sgst = %s/%s, want 30/30", got.CGST, got.SGST)
	}
	if !got.Total.Equal(d("560")) {
		t.Errorf("total = %s, want 560", got.Total)
	}
}

func TestDocumentTotals_EqualsSumOfStoredLines(t *testing.T) {
	line := ledger.PurchaseLineSplit(1, d("0.10"), d("10"))
	lines := []ledger.GSTSplit{line, line}

	got := ledger.DocumentTotals(lines)
	if !got.CGST.Equal(d("0.02")) || !got.SGST.Equal(d("0.02")) {
		t.Errorf("cgst/sgst = %s/%s, want 0.02/0.02", got.CGST, got.SGST)
	}
	if !got.Net.Equal(d("0.20")) || !got.Total.Equal(d("0.24")) {
		t.Errorf("net/total = %s/%s, want 0.20/0.24", got.Net, got.Total)
	}

	var stored ledger.GSTSplit
	for _, l := range lines {
		stored = stored.Add(l.Rounded())
	}
	if !got.TotalGST.Equal(stored.TotalGST) {
		t.Errorf("total gst = %s, stored lines sum to %s", got.TotalGST, stored.TotalGST)
	}
}
