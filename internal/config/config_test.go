package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, "sentryscreen", cfg.Prefix)
	assert.Equal(t, "001", cfg.SoftwarePrefix)
	assert.Equal(t, 500, cfg.MaxMatches)
	assert.Equal(t, 0.7, cfg.ScoreThreshold)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
index_name: screening-prod
max_batch: 25
score_threshold: 0.8
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "screening-prod", cfg.Prefix)
	assert.Equal(t, 25, cfg.MaxBatch)
	assert.Equal(t, 0.8, cfg.ScoreThreshold)
	// untouched fields keep defaults
	assert.Equal(t, 500, cfg.MaxMatches)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("index_name: from-file\n"), 0o644))

	t.Setenv("INDEX_NAME", "from-env")
	t.Setenv("MAX_BATCH", "7")
	t.Setenv("DELTA_UPDATES", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Prefix)
	assert.Equal(t, 7, cfg.MaxBatch)
	assert.False(t, cfg.DeltaUpdates)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty prefix", func(c *Config) { c.Prefix = "" }},
		{"bad software prefix", func(c *Config) { c.SoftwarePrefix = "1" }},
		{"bad index type", func(c *Config) { c.IndexType = "solr" }},
		{"zero max_batch", func(c *Config) { c.MaxBatch = 0 }},
		{"cutoff above threshold", func(c *Config) { c.ScoreCutoff = 0.9 }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestReindexInterval(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "1h", cfg.ReindexInterval())

	cfg.Crontab = "@every 30m"
	assert.Equal(t, "30m", cfg.ReindexInterval())

	cfg.Crontab = "0 3 * * *"
	assert.Equal(t, "1h", cfg.ReindexInterval())
}
