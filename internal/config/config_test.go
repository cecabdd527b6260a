package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 0.4, cfg.Search.MetadataWeight)
	assert.Equal(t, 0.6, cfg.Search.ContentWeight)
	assert.Equal(t, 4, cfg.Performance.IndexWorkers)
	assert.Equal(t, 200*time.Millisecond, cfg.DebounceWindow())
	assert.Equal(t, 10*time.Second, cfg.SearchTimeout())
	assert.Contains(t, cfg.Paths.Exclude, ".git")
	assert.Contains(t, cfg.Paths.Exclude, ".semdex")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Search.ContentWeight)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
search:
  metadata_weight: 0.3
  content_weight: 0.7
performance:
  index_workers: 8
  watch_debounce: 500ms
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.Search.MetadataWeight)
	assert.Equal(t, 0.7, cfg.Search.ContentWeight)
	assert.Equal(t, 8, cfg.Performance.IndexWorkers)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceWindow())
	// Untouched values keep defaults.
	assert.Equal(t, int64(50_000_000), cfg.Limits.PDFMaxBytes)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("SEMDEX_INDEX_WORKERS", "2")
	t.Setenv("SEMDEX_SEARCH_TIMEOUT", "3s")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Performance.IndexWorkers)
	assert.Equal(t, 3*time.Second, cfg.SearchTimeout())
}

func TestValidate_RejectsBadWeights(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.MetadataWeight = 0.5
	cfg.Search.ContentWeight = 0.7

	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadDurations(t *testing.T) {
	cfg := NewConfig()
	cfg.Performance.WatchDebounce = "not-a-duration"
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.Search.Timeout = "never"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadSigmoid(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.SigmoidScale = -1
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.Search.SigmoidMidpoint = 2.5
	assert.Error(t, cfg.Validate())
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := NewConfig()
	cfg.Performance.IndexWorkers = 6
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 6, loaded.Performance.IndexWorkers)
}
