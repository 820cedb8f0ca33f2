package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
atlas:
  path: /atlases/custom.nii
processing:
  numCores: 3
  composites: false
output:
  file: coords.db
  logLevel: debug
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/atlases/custom.nii", cfg.Atlas.Path)
	assert.Equal(t, "JHU-ICBM-labels-1mm.nii.gz", cfg.Atlas.Filename, "unset keys keep defaults")
	assert.Equal(t, 3, cfg.Processing.NumCores)
	assert.False(t, cfg.Processing.Composites)
	assert.Equal(t, "coords.db", cfg.Output.File)
	assert.Equal(t, "data", cfg.Output.Dir)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("processing: [1, 2"), 0644))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "error parsing config file")
	})

	t.Run("bad log level", func(t *testing.T) {
		path := filepath.Join(dir, "level.yaml")
		require.NoError(t, os.WriteFile(path, []byte("output:\n  logLevel: loud\n"), 0644))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "logLevel")
	})

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(dir, "typo.yaml")
		require.NoError(t, os.WriteFile(path, []byte("output:\n  fiel: coords.csv\n"), 0644))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "error parsing config file")
	})

	t.Run("disabled log level", func(t *testing.T) {
		path := filepath.Join(dir, "disabled.yaml")
		require.NoError(t, os.WriteFile(path, []byte("output:\n  logLevel: disabled\n"), 0644))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "logLevel")
	})

	t.Run("negative cores", func(t *testing.T) {
		path := filepath.Join(dir, "cores.yaml")
		require.NoError(t, os.WriteFile(path, []byte("processing:\n  numCores: -1\n"), 0644))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "numCores")
	})
}

func TestLoadConfigEmptyLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  logLevel: \"\"\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	assert.ErrorIs(t, CreateDefaultConfigFile(path), ErrConfigExists)
}
