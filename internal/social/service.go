// Package social implements the snapgram data model: accounts and the follow
// graph, posts with their media, comments and likes, ephemeral stories and
// their views, direct messages and notifications.
//
// Every operation runs in a single transactional scope of the backing store,
// so cascading deletes are all-or-nothing and readers never see them half
// applied.
package social

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/snapgram/backend/internal/logging"
	"github.com/snapgram/backend/internal/metrics"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/store"
)

// AssetStorage persists uploaded media bytes and returns their location.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Service enforces the integrity and lifecycle rules of every record type
// over a store.Store.
type Service struct {
	store   store.Store
	now     func() time.Time
	metrics *metrics.Collector
	assets  AssetStorage
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for creation timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records operation outcomes on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

// WithAssetStorage enables the media upload operations.
func WithAssetStorage(assets AssetStorage) Option {
	return func(s *Service) {
		s.assets = assets
	}
}

// NewService constructs a Service over st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock returns the current instant in UTC at the precision every engine persists.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// begin opens a span for operation. The returned func must be called with the
// operation's final error.
func (s *Service) begin(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := logging.StartSpan(ctx, operation)
	start := time.Now()

	return ctx, func(err error) {
		outcome := outcomeOf(err)
		s.metrics.ObserveOperation(span.Name(), outcome, time.Since(start))
		if outcome == metrics.OutcomeError {
			logging.FromContext(ctx).Error("operation failed", slog.Any("error", err))
		}
		span.End(outcome)
	}
}

func (s *Service) cascaded(ctx context.Context, report models.CascadeReport) {
	s.metrics.ObserveCascade(report.Counts())

	attrs := make([]any, 0, 11)
	attrs = append(attrs, slog.Int("total", report.Total()))
	for entity, n := range report.Counts() {
		if n > 0 {
			attrs = append(attrs, slog.Int(entity, n))
		}
	}
	logging.FromContext(ctx).Info("cascade committed", attrs...)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrSelfFollow), errors.Is(err, ErrSelfMessage):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrDuplicateEdge), errors.Is(err, ErrDuplicateLike), errors.Is(err, ErrDuplicateView),
		errors.Is(err, ErrConcurrentChange):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrForbidden):
		return metrics.OutcomeForbidden
	default:
		return metrics.OutcomeError
	}
}

// CountRows reports the number of stored rows per table.
func (s *Service) CountRows(ctx context.Context) (counts map[string]int, err error) {
	ctx, finish := s.begin(ctx, "count_rows")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		counts, err = tx.CountRows(ctx)
		return err
	})
	return counts, err
}

func requireUser(ctx context.Context, tx store.Tx, id int64) error {
	_, err := tx.GetUser(ctx, id)
	return missing(err, entityUser, id)
}

func requirePost(ctx context.Context, tx store.Tx, id int64) error {
	_, err := tx.GetPost(ctx, id)
	return missing(err, entityPost, id)
}

func requireStory(ctx context.Context, tx store.Tx, id int64) error {
	_, err := tx.GetStory(ctx, id)
	return missing(err, entityStory, id)
}
