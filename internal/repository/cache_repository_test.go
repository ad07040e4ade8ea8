package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mramrohaleem/study/internal/models"
	appErrors "github.com/mramrohaleem/study/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "study:")
	ctx := context.Background()

	var dest models.StreakStats
	err := repo.Get(ctx, "stats:streak", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "stats:streak", models.StreakStats{Days: 3}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "stats:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.Equal(t, "study:stats:week", repo.key("stats:week"))
}

func TestEventPublisherWithoutClient(t *testing.T) {
	publisher := NewEventPublisher(nil, "study-planner.events")

	_, err := publisher.Publish(context.Background(), models.Event{Type: models.EventPlanUpdated})
	assert.Error(t, err)
	assert.Equal(t, "study-planner.events", publisher.Channel())
}
