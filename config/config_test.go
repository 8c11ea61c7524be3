package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/corevm/config"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestLoadOverridesOnlyNamedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_threads: 4\nverbose: true\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxThreads)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, config.Default().TraceFatal, cfg.TraceFatal)
	assert.Equal(t, config.Default().ShutdownGrace, cfg.ShutdownGrace)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsNegativeMaxThreads(t *testing.T) {
	cfg := config.Default()
	cfg.MaxThreads = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeShutdownGrace(t *testing.T) {
	cfg := config.Default()
	cfg.ShutdownGrace = -1
	assert.Error(t, cfg.Validate())
}
