package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

type stubSaver struct {
	calls int
	err   error
}

func (s *stubSaver) Save(_ context.Context, name string, r io.Reader) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "https://cdn.test/" + name, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBreakerStoragePassesThrough(t *testing.T) {
	next := &stubSaver{}
	b := NewBreakerStorage(next, DefaultBreakerConfig("test"), quietLogger())

	location, err := b.Save(context.Background(), "posts/1/a.jpg", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if location != "https://cdn.test/posts/1/a.jpg" {
		t.Fatalf("unexpected location %q", location)
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker, got %v", b.State())
	}
}

func TestBreakerStorageOpensAfterFailures(t *testing.T) {
	upstream := errors.New("bucket offline")
	next := &stubSaver{err: upstream}
	cfg := DefaultBreakerConfig("test")
	cfg.Timeout = time.Hour
	b := NewBreakerStorage(next, cfg, quietLogger())

	for i := 0; i < int(cfg.MinRequests); i++ {
		if _, err := b.Save(context.Background(), "k", strings.NewReader("x")); !errors.Is(err, upstream) {
			t.Fatalf("attempt %d: expected upstream error, got %v", i, err)
		}
	}

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %v", b.State())
	}

	_, err := b.Save(context.Background(), "k", strings.NewReader("x"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if next.calls != int(cfg.MinRequests) {
		t.Fatalf("expected open breaker to skip upstream, got %d calls", next.calls)
	}
}

func TestBreakerStorageIgnoresCanceledCallers(t *testing.T) {
	next := &stubSaver{err: context.Canceled}
	cfg := DefaultBreakerConfig("test")
	b := NewBreakerStorage(next, cfg, quietLogger())

	for i := 0; i < int(cfg.MinRequests)*2; i++ {
		if _, err := b.Save(context.Background(), "k", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("expected breaker to stay closed, got %v", b.State())
	}
}
