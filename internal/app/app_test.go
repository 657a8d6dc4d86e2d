package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igfeed/pkg/cache"
	"igfeed/pkg/config"
	"igfeed/pkg/logger"
)

func TestNewWithDefaults(t *testing.T) {
	cfg := config.DefaultConfig()

	a, err := New(context.Background(), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Feed)
	assert.NotNil(t, a.Scraper)
	assert.Nil(t, a.Artifacts)
	assert.IsType(t, &cache.MemoryStore{}, a.Store)
	assert.Equal(t, "https://www.instagram.com/natgeo/", a.Endpoints.ProfileURL("natgeo"))
}

func TestNewWithArtifactsAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.DefaultConfig()
	cfg.Debug.ArtifactsDir = t.TempDir()
	cfg.Cache.Backend = config.CacheBackendRedis
	cfg.Redis.Addr = mr.Addr()

	a, err := New(context.Background(), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Artifacts)
	assert.Equal(t, cfg.Debug.ArtifactsDir, a.Artifacts.GetOutputDir())
	assert.IsType(t, &cache.RedisStore{}, a.Store)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Network.BaseURL = "://nope"

	_, err := New(context.Background(), cfg, logger.NewNopLogger())
	assert.Error(t, err)
}
