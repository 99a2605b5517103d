package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"medbill/internal/adapters/cli"
	"medbill/internal/app"
	"medbill/internal/config"
	"medbill/internal/db"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, cli.ErrUsage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	svc := app.NewAppService(pool, logger, cfg.MedicineBundlePath)

	if err := cli.Run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			pool.Close()
			os.Exit(2)
		}
		pool.Close()
		logger.Fatal(err)
	}
}
