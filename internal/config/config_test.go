package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.K)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 300, cfg.MaxIter)
	assert.Equal(t, "scaled", cfg.FeatureSpace)
	assert.True(t, cfg.FillMissing)
	assert.Equal(t, 15, cfg.TopN)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.IsProd())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("NUTRI_K", "6")
	t.Setenv("NUTRI_FEATURE_SPACE", "raw")
	t.Setenv("NUTRI_WEIGHTS", "protein=2")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENVIRONMENT", "PROD")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.K)
	assert.Equal(t, "raw", cfg.FeatureSpace)
	assert.Equal(t, "protein=2", cfg.Weights)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.IsProd())
}

func TestLoadConfigRejectsBadInt(t *testing.T) {
	t.Setenv("NUTRI_K", "four")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestParseWeights(t *testing.T) {
	w, err := ParseWeights(" Protein=1.5, fat=-0.2 ,")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"protein": 1.5, "fat": -0.2}, w)

	w, err = ParseWeights("")
	require.NoError(t, err)
	assert.Empty(t, w)

	_, err = ParseWeights("protein")
	assert.Error(t, err)

	_, err = ParseWeights("protein=lots")
	assert.Error(t, err)
}
