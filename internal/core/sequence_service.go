package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"medbill/internal/ledger"
)

// nextDocumentNumber allocates the next number for prefix in the YYMM period
// of at, inside the caller's transaction. Numbers are gapless per period as
// long as the surrounding transaction commits.
func nextDocumentNumber(ctx context.Context, tx pgx.Tx, prefix string, at time.Time) (string, error) {
	period := ledger.Period(at)

	// Concurrency-safe: the upsert takes a row lock held until commit.
	var last int64
	err := tx.QueryRow(ctx, `
		INSERT INTO document_sequences (prefix, period, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, period)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, prefix, period).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s sequence for %s: %w", prefix, period, err)
	}
	return ledger.FormatDocumentNumber(prefix, at, last), nil
}
