package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestRunRequiresCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without a command")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	t.Setenv("SNAPGRAM_CONFIG_FILE", "")
	if err := Run(context.Background(), []string{"serve"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_more.sql", "0001_init.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	want := []string{"0001_init.sql", "0002_more.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := listMigrations(filepath.Join(dir, "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestShouldRetryMigration(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "wrapped deadlock", err: fmt.Errorf("apply: %w", &pgconn.PgError{Code: "40P01"}), want: true},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "tx closed", err: pgx.ErrTxClosed, want: true},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetryMigration(tt.err); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMigrationBackoff(t *testing.T) {
	if got := migrationBackoff(1); got != migrationBaseBackoff {
		t.Fatalf("expected base backoff, got %v", got)
	}
	if got := migrationBackoff(2); got != 2*migrationBaseBackoff {
		t.Fatalf("expected doubled backoff, got %v", got)
	}
	if got := migrationBackoff(20); got != migrationMaxBackoff {
		t.Fatalf("expected capped backoff, got %v", got)
	}
}

func TestSleepContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSeedFileName(t *testing.T) {
	if got := seedFileName("dev"); got != "dev_seed.sql" {
		t.Fatalf("unexpected seed file %q", got)
	}
	if got := seedFileName("custom.sql"); got != "custom.sql" {
		t.Fatalf("unexpected seed file %q", got)
	}
}

func TestResolveDir(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "migrations")
	if got, err := resolveDir(abs); err != nil || got != abs {
		t.Fatalf("expected %q unchanged, got %q (%v)", abs, got, err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if got, err := resolveDir("seeds"); err != nil || got != filepath.Join(wd, "seeds") {
		t.Fatalf("expected seeds under working directory, got %q (%v)", got, err)
	}
}
