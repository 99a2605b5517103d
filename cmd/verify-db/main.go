// verify-db applies pending migrations and checks that every ledger table exists.
//
// Usage: go run ./cmd/verify-db
package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"medbill/internal/config"
	"medbill/internal/db"
	"medbill/migrations"
)

var requiredTables = []string{
	"suppliers",
	"medicines",
	"purchases",
	"purchase_items",
	"batches",
	"bills",
	"bill_items",
	"sales_returns",
	"sales_return_items",
	"purchase_returns",
	"purchase_return_items",
	"document_sequences",
	"schema_migrations",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("[CONFIG] %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel, "text")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()
	logger.Info("[CONNECT] success")

	applied, err := migrations.Apply(ctx, pool, logger)
	if err != nil {
		logger.Fatalf("[MIGRATE] %v", err)
	}
	logger.Infof("[MIGRATE] %d applied", len(applied))

	missing, err := missingTables(ctx, pool)
	if err != nil {
		logger.Fatalf("[VERIFY] %v", err)
	}
	if len(missing) > 0 {
		logger.WithField("missing", missing).Error("[VERIFY] schema incomplete")
		pool.Close()
		os.Exit(1)
	}

	logger.Info("[DONE] schema verified")
}

func missingTables(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, `
		SELECT t FROM unnest($1::text[]) AS t
		WHERE NOT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = t
		)
		ORDER BY t`, requiredTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		missing = append(missing, name)
	}
	return missing, rows.Err()
}
