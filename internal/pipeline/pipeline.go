// Package pipeline runs the scheduled fetch-classify-publish cycle that keeps
// the store catalog current.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/store-tier-service/internal/catalog"
	"github.com/couchcryptid/store-tier-service/internal/domain"
	"github.com/couchcryptid/store-tier-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

// StoreSource fetches the current store collection.
type StoreSource interface {
	Stores(ctx context.Context) ([]domain.StoreRecord, error)
}

// SnapshotPublisher forwards a classified snapshot downstream.
type SnapshotPublisher interface {
	Publish(ctx context.Context, stores []domain.ClassifiedStore) error
}

// scheduleParser accepts standard five-field cron expressions and
// descriptors such as "@hourly" or "@every 5m".
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a refresh schedule expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", expr, err)
	}
	return sched, nil
}

// Refresher replaces the catalog snapshot on a schedule. A failed refresh is
// logged and leaves the previous snapshot in place; the next attempt happens
// at the next scheduled time.
type Refresher struct {
	source    StoreSource
	catalog   *catalog.Catalog
	publisher SnapshotPublisher
	schedule  cron.Schedule
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Refresher. Pass a nil publisher to skip publishing.
func New(source StoreSource, cat *catalog.Catalog, publisher SnapshotPublisher, schedule cron.Schedule,
	clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		source:    source,
		catalog:   cat,
		publisher: publisher,
		schedule:  schedule,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run refreshes immediately and then at every scheduled time until the
// context is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started")
	r.metrics.RefresherRunning.Set(1)
	defer r.metrics.RefresherRunning.Set(0)

	for {
		if err := r.RefreshOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("refresh failed", "error", err)
		}

		now := r.clock.Now()
		next := r.schedule.Next(now)
		r.logger.Debug("next refresh scheduled", "at", next)
		if !r.sleepUntil(ctx, next.Sub(now)) {
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RefreshOnce runs one fetch-classify-publish cycle. The catalog is updated
// before publishing, so a publish failure does not discard fresh data.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	start := r.clock.Now()

	stores, err := r.source.Stores(ctx)
	if err != nil {
		r.metrics.Refreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch stores: %w", err)
	}

	snap := r.catalog.Replace(stores)
	r.logger.Info("catalog refreshed",
		"stores", snap.Summary.Total,
		"excellent", snap.Summary.Excellent,
		"good", snap.Summary.Good,
		"needs_attention", snap.Summary.NeedsAttention,
		"duplicates", len(snap.Duplicates),
	)

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, domain.ClassifyStores(stores)); err != nil {
			r.metrics.Refreshes.WithLabelValues("error").Inc()
			return fmt.Errorf("publish snapshot: %w", err)
		}
		r.metrics.SnapshotsPublished.Inc()
	}

	r.metrics.Refreshes.WithLabelValues("success").Inc()
	r.metrics.RefreshDuration.Observe(r.clock.Since(start).Seconds())
	return nil
}

func (r *Refresher) sleepUntil(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := r.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
