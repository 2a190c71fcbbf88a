// File: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "atesim", cfg.Logger.ServiceName)

	assert.Equal(t, "both", cfg.Sim.Design)
	assert.Equal(t, 1000, cfg.Sim.N)
	assert.Equal(t, 500, cfg.Sim.NTreat)
	assert.Equal(t, 800, cfg.Sim.Reps)
	assert.Equal(t, int64(12345), cfg.Sim.Seed)
	assert.Equal(t, int64(54321), cfg.Sim.RedrawSeed)
	assert.Equal(t, 0.2, cfg.Sim.Tau0)
	assert.Equal(t, 1, cfg.Sim.Workers)
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, NewDefaultConfig().Validate())
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero n", func(c *Config) { c.Sim.N = 0 }, "sim.n"},
		{"no treated", func(c *Config) { c.Sim.NTreat = 0 }, "sim.ntreat"},
		{"all treated", func(c *Config) { c.Sim.NTreat = c.Sim.N }, "sim.ntreat"},
		{"zero reps", func(c *Config) { c.Sim.Reps = 0 }, "sim.reps"},
		{"negative workers", func(c *Config) { c.Sim.Workers = -2 }, "sim.workers"},
		{"bad design", func(c *Config) { c.Sim.Design = "adaptive" }, "sim.design"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atesim.yaml")
	content := []byte(`
sim:
  design: fixed
  n: 200
  ntreat: 80
  reps: 50
  seed: 99
logger:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "fixed", cfg.Sim.Design)
	assert.Equal(t, 200, cfg.Sim.N)
	assert.Equal(t, 80, cfg.Sim.NTreat)
	assert.Equal(t, 50, cfg.Sim.Reps)
	assert.Equal(t, int64(99), cfg.Sim.Seed)
	assert.Equal(t, "debug", cfg.Logger.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.2, cfg.Sim.Tau0)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atesim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sim:\n  reps: 0\n"), 0o644))

	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sim.reps")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ATESIM_SIM_REPS", "123")
	t.Setenv("ATESIM_SIM_DESIGN", "redraw")

	// Discovery mode tolerates a missing config file; env vars still apply.
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 123, cfg.Sim.Reps)
	assert.Equal(t, "redraw", cfg.Sim.Design)
}
