package config

import (
	"testing"
	"time"

	"abverdict/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ABV_ITERATIONS", "ABV_OUTLIER_PERCENTILE", "ABV_WORKERS", "ABV_SEED", "ABV_CACHE_SIZE", "ABV_MAX_UPLOAD_MB", "PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultIterations, cfg.Analysis.Iterations)
	assert.Equal(t, DefaultOutlierPercentile, cfg.Analysis.OutlierPercentile)
	assert.Nil(t, cfg.Analysis.Seed)
	assert.Positive(t, cfg.Analysis.Workers)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 128, cfg.Cache.Entries)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ABV_ITERATIONS", "2500")
	t.Setenv("ABV_OUTLIER_PERCENTILE", "95")
	t.Setenv("ABV_WORKERS", "3")
	t.Setenv("ABV_SEED", "42")
	t.Setenv("ABV_CACHE_SIZE", "0")
	t.Setenv("ABV_REQUEST_TIMEOUT", "10s")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2500, cfg.Analysis.Iterations)
	assert.Equal(t, 95.0, cfg.Analysis.OutlierPercentile)
	assert.Equal(t, 3, cfg.Analysis.Workers)
	require.NotNil(t, cfg.Analysis.Seed)
	assert.Equal(t, int64(42), *cfg.Analysis.Seed)
	assert.Equal(t, 0, cfg.Cache.Entries)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero iterations", "ABV_ITERATIONS", "0"},
		{"percentile above 100", "ABV_OUTLIER_PERCENTILE", "101"},
		{"negative workers", "ABV_WORKERS", "-1"},
		{"non numeric seed", "ABV_SEED", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoad_Profiling(t *testing.T) {
	t.Setenv("ABV_PPROF", "")
	t.Setenv("ABV_PPROF_PORT", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Profiling.Enabled)
	assert.Equal(t, "6060", cfg.Profiling.Port)

	t.Setenv("ABV_PPROF", "true")
	t.Setenv("ABV_PPROF_PORT", "7070")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Profiling.Enabled)
	assert.Equal(t, "7070", cfg.Profiling.Port)
}
