package ledger_test

import (
	"testing"

	"medbill/internal/ledger"

	"github.com/shopspring/decimal"
)

func TestPiecesFromStrips(t *testing.T) {
	tests := []struct {
		name     string
		strips   int64
		free     int64
		packSize int
		want     int64
	}{
		{"paid only", 10, 0, 10, 100},
		{"paid and free", 10, 2, 10, 120},
		{"free only", 0, 3, 15, 45},
		{"zero", 0, 0, 10, 0},
		{"pack size missing", 4, 1, 0, 50},
		{"pack size negative", 2, 0, -6, 20},
		{"single piece packs", 7, 0, 1, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.PiecesFromStrips(tt.strips, tt.free, tt.packSize)
			if got != tt.want {
				t.Errorf("PiecesFromStrips(%d, %d, %d) = %d, want %d", tt.strips, tt.free, tt.packSize, got, tt.want)
			}
		})
	}
}

func TestPiecesFromStrips_Property(t *testing.T) {
	for strips := int64(0); strips <= 20; strips += 3 {
		for free := int64(0); free <= 6; free += 2 {
			for pack := 1; pack <= 30; pack += 7 {
				got := ledger.PiecesFromStrips(strips, free, pack)
				if got != (strips+free)*int64(pack) {
					t.Fatalf("(%d+%d)*%d: got %d", strips, free, pack, got)
				}
				if got < 0 {
					t.Fatalf("negative pieces %d", got)
				}
			}
		}
	}
}

func TestLineCost_IgnoresFreeStrips(t *testing.T) {
	cost := ledger.LineCost(10, decimal.NewFromInt(50))
	if !cost.Equal(decimal.NewFromInt(500)) {
		t.Errorf("LineCost = %s, want 500", cost)
	}
}

func TestPricePerPiece(t *testing.T) {
	got := ledger.PricePerPiece(decimal.NewFromInt(120), 10)
	if !got.Equal(decimal.NewFromInt(12)) {
		t.Errorf("PricePerPiece = %s, want 12", got)
	}
	if got := ledger.PricePerPiece(decimal.NewFromInt(30), 0); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("PricePerPiece with default pack = %s, want 3", got)
	}
}
