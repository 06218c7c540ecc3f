package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/feigo/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feigo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ".", cfg.Dir)
	assert.Equal(t, []string{"./..."}, cfg.Patterns)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "feigo", cfg.MarkerPrefix)
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce)
	assert.True(t, cfg.WritesToStdout())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv("FEIGO_FORMAT", "")
	t.Setenv("FEIGO_OUTPUT", "")

	path := writeConfig(t, `
dir: ./service
patterns: [./api/..., ./clients]
format: yaml
output: contracts.yaml
alwaysEncodeBody: true
debounce: 1s
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./service", cfg.Dir)
	assert.Equal(t, []string{"./api/...", "./clients"}, cfg.Patterns)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "contracts.yaml", cfg.Output)
	assert.True(t, cfg.AlwaysEncodeBody)
	assert.Equal(t, time.Second, cfg.Debounce)
	assert.Equal(t, "feigo", cfg.MarkerPrefix, "unset keys keep their defaults")
	assert.False(t, cfg.WritesToStdout())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "format: json\noutput: a.json\n")
	t.Setenv("FEIGO_FORMAT", " YAML ")
	t.Setenv("FEIGO_OUTPUT", "b.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "b.yaml", cfg.Output)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
	assert.Contains(t, err.Error(), "failed to read configuration")

	_, err = LoadConfig(writeConfig(t, "formt: yaml\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
	assert.Contains(t, err.Error(), "formt")
}

func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FEIGO_FORMAT", "")
	t.Setenv("FEIGO_OUTPUT", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseOverrides_Empty(t *testing.T) {
	o, err := ParseOverrides(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Overrides{}, o)
}

func TestConfig_Merge(t *testing.T) {
	cfg := DefaultConfig()
	format := "yaml"
	watch := true
	cfg.Merge(Overrides{Format: &format, Watch: &watch})

	assert.Equal(t, "yaml", cfg.Format)
	assert.True(t, cfg.Watch)
	assert.Equal(t, []string{"./..."}, cfg.Patterns)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"unknown format", func(c *Config) { c.Format = "xml" }, "Format: must be one of json, yaml"},
		{"no patterns", func(c *Config) { c.Patterns = nil }, "Patterns: required"},
		{"blank pattern", func(c *Config) { c.Patterns = []string{""} }, "required"},
		{"bad prefix", func(c *Config) { c.MarkerPrefix = "fei go" }, "MarkerPrefix: must be alphanumeric"},
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }, "Debounce: must be at least"},
		{"quiet and verbose", func(c *Config) { c.Quiet, c.Verbose = true, true }, "Quiet: cannot be combined with Verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
