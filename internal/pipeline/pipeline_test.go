package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/store-tier-service/internal/catalog"
	"github.com/couchcryptid/store-tier-service/internal/domain"
	"github.com/couchcryptid/store-tier-service/internal/observability"
	"github.com/couchcryptid/store-tier-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// --- mocks ---

type mockSource struct {
	mu     sync.Mutex
	stores []domain.StoreRecord
	err    error
	calls  int
}

func (m *mockSource) Stores(_ context.Context) ([]domain.StoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.stores, nil
}

func (m *mockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockSource) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type mockPublisher struct {
	mu        sync.Mutex
	published [][]domain.ClassifiedStore
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, stores []domain.ClassifiedStore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, stores)
	return nil
}

var (
	testNow    = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	testStores = []domain.StoreRecord{
		{ID: 1, Name: "Oxxo Centro", NPS: 70, DamageRate: 0.1, OutOfStockRate: 1},
		{ID: 2, Name: "Bodega Sur", NPS: 20},
	}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	clock     *clockwork.FakeClock
	catalog   *catalog.Catalog
	metrics   *observability.Metrics
	refresher *pipeline.Refresher
}

func newHarness(t *testing.T, src pipeline.StoreSource, pub pipeline.SnapshotPublisher) harness {
	t.Helper()
	sched, err := pipeline.ParseSchedule("@every 5m")
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(testNow)
	metrics := observability.NewMetricsForTesting()
	cat := catalog.New(clock, discardLogger(), metrics)
	return harness{
		clock:     clock,
		catalog:   cat,
		metrics:   metrics,
		refresher: pipeline.New(src, cat, pub, sched, clock, discardLogger(), metrics),
	}
}

// --- tests ---

func TestParseSchedule(t *testing.T) {
	for _, expr := range []string{"@every 5m", "@hourly", "*/10 * * * *", "0 6 * * 1-5"} {
		_, err := pipeline.ParseSchedule(expr)
		assert.NoError(t, err, expr)
	}

	_, err := pipeline.ParseSchedule("every five minutes")
	assert.ErrorContains(t, err, "parse refresh schedule")

	sched, err := pipeline.ParseSchedule("0 6 * * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC), sched.Next(testNow))
}

func TestRefreshOnce(t *testing.T) {
	src := &mockSource{stores: testStores}
	pub := &mockPublisher{}
	h := newHarness(t, src, pub)

	require.NoError(t, h.refresher.RefreshOnce(context.Background()))

	snap, err := h.catalog.Snapshot()
	require.NoError(t, err)
	if diff := cmp.Diff(testStores, snap.Stores); diff != "" {
		t.Errorf("snapshot stores mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, testNow, snap.FetchedAt)

	require.Len(t, pub.published, 1)
	require.Len(t, pub.published[0], 2)
	assert.Equal(t, domain.TierExcellent, pub.published[0][0].Tier)
	assert.Equal(t, domain.TierNeedsAttention, pub.published[0][1].Tier)

	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.Refreshes.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.SnapshotsPublished), 0)
}

func TestRefreshOnceWithoutPublisher(t *testing.T) {
	h := newHarness(t, &mockSource{stores: testStores}, nil)

	require.NoError(t, h.refresher.RefreshOnce(context.Background()))
	require.NoError(t, h.catalog.CheckReadiness(context.Background()))
	assert.InDelta(t, 0, testutil.ToFloat64(h.metrics.SnapshotsPublished), 0)
}

func TestRefreshOnceFetchErrorKeepsPreviousSnapshot(t *testing.T) {
	src := &mockSource{stores: testStores}
	h := newHarness(t, src, nil)
	require.NoError(t, h.refresher.RefreshOnce(context.Background()))

	serverErr := &domain.ServerError{StatusCode: 503}
	src.Fail(serverErr)
	err := h.refresher.RefreshOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, serverErr)
	snap, snapErr := h.catalog.Snapshot()
	require.NoError(t, snapErr)
	assert.Len(t, snap.Stores, 2)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.Refreshes.WithLabelValues("error")), 0)
}

func TestRefreshOncePublishErrorStillUpdatesCatalog(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	h := newHarness(t, &mockSource{stores: testStores}, pub)

	err := h.refresher.RefreshOnce(context.Background())
	assert.ErrorContains(t, err, "publish snapshot: broker down")
	assert.NoError(t, h.catalog.CheckReadiness(context.Background()))
}

func TestRun_RefreshesOnSchedule(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &mockSource{stores: testStores}
	h := newHarness(t, src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.refresher.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()

	// The first refresh happens immediately, then the refresher waits on a timer.
	require.NoError(t, h.clock.BlockUntilContext(waitCtx, 1))
	assert.Equal(t, 1, src.Calls())
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.RefresherRunning), 0)

	h.clock.Advance(5 * time.Minute)
	require.Eventually(t, func() bool { return src.Calls() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, h.clock.BlockUntilContext(waitCtx, 1))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
	assert.InDelta(t, 0, testutil.ToFloat64(h.metrics.RefresherRunning), 0)
}

func TestRun_FailedRefreshWaitsForNextTick(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &mockSource{err: errors.New("connection refused")}
	h := newHarness(t, src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.refresher.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()

	require.NoError(t, h.clock.BlockUntilContext(waitCtx, 1))
	assert.Equal(t, 1, src.Calls(), "no automatic retry")
	assert.ErrorIs(t, h.catalog.CheckReadiness(context.Background()), catalog.ErrNotLoaded)

	h.clock.Advance(time.Minute)
	assert.Equal(t, 1, src.Calls())

	cancel()
	require.NoError(t, <-done)
}
