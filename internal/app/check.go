package app

import (
	"context"
	"fmt"
	"io"

	"github.com/snapgram/backend/internal/config"
	"github.com/snapgram/backend/internal/store"
)

func runCheck(ctx context.Context, cfg config.Config, out io.Writer) error {
	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, err := buildDependencies(ctx, pool, cfg)
	if err != nil {
		return err
	}

	return reportCounts(ctx, deps, out)
}

// reportCounts prints one line per table in dependency order.
func reportCounts(ctx context.Context, deps Dependencies, out io.Writer) error {
	counts, err := deps.Social.CountRows(ctx)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}

	for _, table := range store.Tables {
		fmt.Fprintf(out, "%-14s %d\n", table, counts[table])
	}
	return nil
}
