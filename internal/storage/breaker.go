package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while the breaker rejects uploads.
var ErrUnavailable = errors.New("asset storage temporarily unavailable")

// BreakerConfig tunes the circuit breaker placed in front of a Saver.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that opens the breaker once
	// MinRequests have been observed.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used for the media bucket.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      5,
	}
}

// BreakerStorage stops calling the wrapped Saver after repeated failures and
// lets a probe through once Timeout has elapsed.
type BreakerStorage struct {
	next Saver
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerStorage wraps next with a circuit breaker.
func NewBreakerStorage(next Saver, cfg BreakerConfig, logger *slog.Logger) *BreakerStorage {
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("asset storage breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		// a caller giving up is not a storage failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerStorage{next: next, cb: cb}
}

// Save forwards to the wrapped Saver unless the breaker is open.
func (b *BreakerStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Save(ctx, name, r)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state.
func (b *BreakerStorage) State() gobreaker.State {
	return b.cb.State()
}
