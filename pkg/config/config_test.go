package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-octopus/pkg/config"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, config.Default().Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := map[string]func(c *config.Config){
		"unknown level":     func(c *config.Config) { c.Log.Level = "loud" },
		"negative buffer":   func(c *config.Config) { c.Engine.BufferSize = -1 },
		"missing namespace": func(c *config.Config) { c.Metrics.Namespace = " " },
	}
	for name, edit := range tests {
		edit := edit
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := config.Default()
			edit(c)
			assert.ErrorIs(t, c.Validate(), config.ErrInvalidConfig)
		})
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "octopus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\nengine:\n  buffer_size: 2\n"), 0o600))
	t.Setenv(config.EnvBufferSize, "8")
	t.Setenv(config.EnvLogJSON, "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 8, cfg.Engine.BufferSize)
	assert.Equal(t, "octopus", cfg.Metrics.Namespace)
}

func TestLoadRejectsBadEnvironment(t *testing.T) {
	t.Setenv(config.EnvBufferSize, "many")

	_, err := config.Load("")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
