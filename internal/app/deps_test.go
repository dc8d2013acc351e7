package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapgram/backend/internal/config"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/social"
	"github.com/snapgram/backend/internal/store"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Defaults()

	deps, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Store == nil {
		t.Fatal("expected store to be configured")
	}
	if deps.Social == nil {
		t.Fatal("expected social service to be configured")
	}
	if deps.Metrics == nil {
		t.Fatal("expected metrics collector to be configured")
	}
	if deps.Assets != nil {
		t.Fatal("expected asset storage to stay disabled without a bucket")
	}
}

func TestBuildDependenciesWithObjectStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps.Assets == nil {
		t.Fatal("expected asset storage to be configured")
	}
}

func TestBuildDependenciesSurfacesStoreErrors(t *testing.T) {
	deps, err := buildDependencies(context.Background(), fakePool{}, config.Defaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := deps.Social.GetUser(context.Background(), 1); err == nil {
		t.Fatal("expected begin transaction failure to surface")
	}
}

func TestReportCounts(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	deps := Dependencies{Store: st, Social: social.NewService(st)}

	if _, err := deps.Social.CreateUser(ctx, models.NewUser{Username: "alice"}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	var out bytes.Buffer
	if err := reportCounts(ctx, deps, &out); err != nil {
		t.Fatalf("report counts: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(store.Tables) {
		t.Fatalf("expected %d lines, got %d: %q", len(store.Tables), len(lines), out.String())
	}
	if fields := strings.Fields(lines[0]); fields[0] != store.TableUsers || fields[1] != "1" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
}
