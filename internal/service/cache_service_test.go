package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mramrohaleem/study/internal/models"
)

type failingCache struct{ *memoryCache }

func (failingCache) Get(context.Context, string, interface{}) error {
	return errors.New("redis down")
}

type flakyDeleteCache struct {
	*memoryCache
	failures int
}

func (c *flakyDeleteCache) DeleteByPattern(ctx context.Context, pattern string) error {
	if c.failures > 0 {
		c.failures--
		return errors.New("redis timeout")
	}
	return c.memoryCache.DeleteByPattern(ctx, pattern)
}

func TestCacheServiceRetriesFailedInvalidation(t *testing.T) {
	metrics := NewMetricsService()
	repo := &flakyDeleteCache{memoryCache: newMemoryCache(), failures: 2}
	svc := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()
	key := "stats:week:2026-03-02"

	require.NoError(t, svc.Set(ctx, key, models.WeekStats{Adherence: 40}, time.Minute))
	require.Error(t, svc.Invalidate(ctx, StatsPattern))

	var dest models.WeekStats
	hit, err := svc.Get(ctx, key, &dest)
	require.NoError(t, err)
	assert.False(t, hit, "stale entry is never served while invalidation is pending")

	hit, err = svc.Get(ctx, key, &dest)
	require.NoError(t, err)
	assert.False(t, hit, "retried invalidation removed the stale entry")

	require.NoError(t, svc.Set(ctx, key, models.WeekStats{Adherence: 75}, time.Minute))
	hit, err = svc.Get(ctx, key, &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 75, dest.Adherence)

	assert.Equal(t, uint64(2), metrics.Snapshot().CacheInvalidationErrors)
}

func TestCacheServiceRoundTrip(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemoryCache(), metrics, 0, nil, true)
	ctx := context.Background()

	var dest models.StreakStats
	hit, err := svc.Get(ctx, "stats:streak:2026-03-02", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "stats:streak:2026-03-02", models.StreakStats{Days: 4}, time.Minute))
	hit, err = svc.Get(ctx, "stats:streak:2026-03-02", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, dest.Days)

	require.NoError(t, svc.Invalidate(ctx, StatsPattern))
	hit, _ = svc.Get(ctx, "stats:streak:2026-03-02", &dest)
	assert.False(t, hit)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(2), snapshot.CacheMisses)
}

func TestCacheServiceDisabledAndFailing(t *testing.T) {
	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	hit, err := nilSvc.Get(context.Background(), "k", &struct{}{})
	assert.NoError(t, err)
	assert.False(t, hit)

	off := NewCacheService(newMemoryCache(), nil, 0, nil, false)
	assert.False(t, off.Enabled())
	assert.NoError(t, off.Set(context.Background(), "k", 1, 0))

	broken := NewCacheService(&failingCache{memoryCache: newMemoryCache()}, nil, 0, nil, true)
	hit, err = broken.Get(context.Background(), "k", &struct{}{})
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestMetricsServiceSnapshot(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest("GET", "/api/v1/state", 200, 20*time.Millisecond)
	metrics.ObservePlannerRun("plan_subject", true, 2, time.Millisecond)
	metrics.RecordEvent("plan_updated", "published")
	metrics.RecordEvent("plan_updated", "failed")

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.InDelta(t, 20.0, snapshot.AverageRequestDurationMs, 0.01)
	assert.Equal(t, uint64(1), snapshot.PlannerRuns)
	assert.Equal(t, uint64(2), snapshot.PlannerWarnings)
	assert.Equal(t, uint64(1), snapshot.EventsPublished)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["planner_runs_total"])
	assert.True(t, names["planner_warnings_total"])

	var nilMetrics *MetricsService
	nilMetrics.ObservePlannerRun("plan_subject", false, 0, time.Millisecond)
	assert.Equal(t, MetricsSnapshot{}, nilMetrics.Snapshot())
}
