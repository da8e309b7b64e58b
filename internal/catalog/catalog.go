// Package catalog holds the most recently fetched store collection. Each
// refresh replaces the whole snapshot; readers never observe a partial one.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/store-tier-service/internal/domain"
	"github.com/couchcryptid/store-tier-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrNotLoaded is returned until the first snapshot has been stored.
var ErrNotLoaded = errors.New("store catalog has not been loaded yet")

// Snapshot is an immutable view of one fetched store collection.
type Snapshot struct {
	Stores     []domain.StoreRecord
	ByID       map[int64]domain.StoreRecord
	Duplicates []int64
	Summary    domain.Summary
	FetchedAt  time.Time
}

// Lookup returns the store with the given id.
func (s *Snapshot) Lookup(id int64) (domain.StoreRecord, bool) {
	r, ok := s.ByID[id]
	return r, ok
}

// Catalog publishes snapshots to concurrent readers.
type Catalog struct {
	current atomic.Pointer[Snapshot]
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an empty Catalog.
func New(clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Catalog {
	return &Catalog{clock: clock, logger: logger, metrics: metrics}
}

// Replace indexes and summarizes stores and makes the result the current
// snapshot. Duplicate ids are reported as data-quality warnings; the last
// record with a given id wins.
func (c *Catalog) Replace(stores []domain.StoreRecord) *Snapshot {
	byID, dups := domain.IndexByID(stores)
	snap := &Snapshot{
		Stores:     stores,
		ByID:       byID,
		Duplicates: dups,
		Summary:    domain.Summarize(stores),
		FetchedAt:  c.clock.Now(),
	}

	for _, id := range dups {
		c.logger.Warn("duplicate store id in batch, keeping last record", "store_id", id)
	}
	if n := snap.Summary.InvalidIDs; n > 0 {
		c.logger.Warn("stores with invalid ids are read-only", "count", n)
	}

	c.metrics.DuplicateIDs.Add(float64(len(dups)))
	c.metrics.InvalidIDs.Set(float64(snap.Summary.InvalidIDs))
	for _, t := range domain.Tiers {
		c.metrics.StoresByTier.WithLabelValues(string(t)).Set(float64(snap.Summary.Count(t)))
	}
	c.metrics.SnapshotLoaded.Set(float64(snap.FetchedAt.Unix()))

	c.current.Store(snap)
	return snap
}

// Snapshot returns the current snapshot or ErrNotLoaded.
func (c *Catalog) Snapshot() (*Snapshot, error) {
	snap := c.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// CheckReadiness returns nil once a snapshot has been loaded.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	_, err := c.Snapshot()
	return err
}
