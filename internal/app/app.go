package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/snapgram/backend/internal/config"
	"github.com/snapgram/backend/internal/db"
	"github.com/snapgram/backend/internal/logging"
)

// Run executes one snapgram maintenance command.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout)
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("expected command: migrate, seed, or check")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.SlogLevel())
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	switch args[0] {
	case "migrate":
		return runMigrations(ctx, cfg, args[1:], out)
	case "seed":
		return runSeed(ctx, cfg, args[1:], out)
	case "check":
		return runCheck(ctx, cfg, out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func connect(ctx context.Context, cfg config.Config) (db.Pool, error) {
	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// resolveDir anchors a relative directory at the working directory.
func resolveDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Join(wd, dir), nil
}
