package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"medbill/internal/app"
)

// ErrUsage is returned when the subcommand or its arguments are missing or unknown.
var ErrUsage = errors.New("usage: app <migrate|import-medicines [path]|count|stock <query>|expiring <YYYY-MM-DD>>")

// Run executes a one-shot CLI command, writing human-readable output to out.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "migrate":
		result, err := svc.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if len(result.Applied) == 0 {
			fmt.Fprintln(out, "Schema is up to date.")
			return nil
		}
		for _, name := range result.Applied {
			fmt.Fprintf(out, "applied %s\n", name)
		}

	case "import-medicines", "import":
		path := ""
		if len(args) > 1 {
			path = args[1]
		}
		result, err := svc.ImportMedicines(ctx, path)
		if err != nil {
			return fmt.Errorf("import medicines: %w", err)
		}
		if result.Skipped {
			fmt.Fprintf(out, "Catalog already has %d medicines; import skipped.\n", result.Total)
			return nil
		}
		fmt.Fprintf(out, "Imported %d medicines.\n", result.Imported)

	case "count":
		result, err := svc.CountMedicines(ctx)
		if err != nil {
			return fmt.Errorf("count medicines: %w", err)
		}
		fmt.Fprintf(out, "%d active medicines\n", result.Active)

	case "stock":
		if len(args) < 2 {
			return ErrUsage
		}
		result, err := svc.SearchStock(ctx, app.ListRequest{Search: strings.Join(args[1:], " ")})
		if err != nil {
			return fmt.Errorf("search stock: %w", err)
		}
		printStock(out, result)

	case "expiring":
		if len(args) < 2 {
			return ErrUsage
		}
		result, err := svc.ExpiringBatches(ctx, args[1])
		if err != nil {
			return fmt.Errorf("expiring batches: %w", err)
		}
		printBatches(out, result)

	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
	return nil
}

func printStock(out io.Writer, result *app.StockResult) {
	if len(result.Levels) == 0 {
		fmt.Fprintln(out, "No matching medicines.")
		return
	}
	fmt.Fprintf(out, "%-36s %8s %8s %8s %12s\n", "MEDICINE", "STRIPS", "LOOSE", "PIECES", "NEAREST EXP")
	fmt.Fprintln(out, strings.Repeat("-", 76))
	for _, l := range result.Levels {
		expiry := "-"
		if l.NearestExpiry != nil {
			expiry = l.NearestExpiry.Format("2006-01-02")
		}
		flag := ""
		if l.BelowReorder {
			flag = " *"
		}
		fmt.Fprintf(out, "%-36s %8d %8d %8d %12s%s\n", truncate(l.MedicineName, 36), l.Strips, l.LoosePieces, l.Pieces, expiry, flag)
	}
}

func printBatches(out io.Writer, result *app.BatchListResult) {
	if len(result.Batches) == 0 {
		fmt.Fprintln(out, "No batches.")
		return
	}
	fmt.Fprintf(out, "%-30s %-14s %12s %8s\n", "MEDICINE", "BATCH", "EXPIRY", "PIECES")
	fmt.Fprintln(out, strings.Repeat("-", 67))
	for _, b := range result.Batches {
		fmt.Fprintf(out, "%-30s %-14s %12s %8d\n", truncate(b.MedicineName, 30), b.BatchNumber, b.ExpiryDate.Format("2006-01-02"), b.Quantity)
	}
}

// truncate shortens s to n runes so table columns stay aligned.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
