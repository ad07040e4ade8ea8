package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "study-planner.events", cfg.Notify.Channel)
	assert.Equal(t, 30, cfg.Planner.StreakMinMinutes)
	assert.Equal(t, 5*time.Minute, cfg.Planner.StatsCacheTTL)
	assert.False(t, cfg.Exports.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("PLANNER_DEFAULT_MAX_LECTURES", "3")
	t.Setenv("PLANNER_STATS_CACHE_TTL", "not-a-duration")
	t.Setenv("EXPORTS_SIGNED_URL_TTL", "90m")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, 3, cfg.Planner.DefaultMaxLectures)
	assert.Equal(t, 5*time.Minute, cfg.Planner.StatsCacheTTL, "invalid durations fall back")
	assert.Equal(t, 90*time.Minute, cfg.Exports.SignedURLTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestPlannerLocation(t *testing.T) {
	assert.Equal(t, time.UTC, PlannerConfig{}.Location())
	assert.Equal(t, time.UTC, PlannerConfig{Timezone: "Nowhere/Atlantis"}.Location())
	assert.Equal(t, "UTC", PlannerConfig{Timezone: "UTC"}.Location().String())
}
