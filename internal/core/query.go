package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// likePattern turns user search text into a contains pattern with LIKE
// metacharacters escaped.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(search)) + "%"
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// findByIdempotencyKey returns the ID of the row in table saved under key.
// table is always a package constant.
func findByIdempotencyKey(ctx context.Context, pool *pgxpool.Pool, table, key string) (int, bool, error) {
	var id int
	err := pool.QueryRow(ctx, "SELECT id FROM "+table+" WHERE idempotency_key = $1", key).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to check %s idempotency key: %w", table, err)
	}
	return id, true, nil
}

// idempotencyKey returns key, or a fresh UUID when the caller sent none.
func idempotencyKey(key string) string {
	if k := strings.TrimSpace(key); k != "" {
		return k
	}
	return uuid.NewString()
}
