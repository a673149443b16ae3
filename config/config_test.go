package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "toml",
			file: "hako.toml",
			body: "[world]\npage_size = 256\nworkers = 8\n\n[logging]\nlevel = \"debug\"\nformat = \"json\"\n",
		},
		{
			name: "yaml",
			file: "hako.yaml",
			body: "world:\n  page_size: 256\n  workers: 8\nlogging:\n  level: debug\n  format: json\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.body))
			require.NoError(t, err)
			assert.Equal(t, 256, cfg.World.PageSize)
			assert.Equal(t, 8, cfg.World.Workers)
			assert.Equal(t, "debug", cfg.Logging.Level)
			assert.Equal(t, "json", cfg.Logging.Format)
			// untouched sections keep their defaults
			assert.Equal(t, Default().Bench, cfg.Bench)
			assert.Equal(t, Default().World.InitialCapacity, cfg.World.InitialCapacity)
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HAKO_PAGE_SIZE", "64")
	t.Setenv("HAKO_LOG_LEVEL", "warn")
	t.Setenv("HAKO_STATSD_ADDRESS", "localhost:8125")

	cfg, err := Load(writeFile(t, "hako.toml", "[world]\npage_size = 256\n"))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.World.PageSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "localhost:8125", cfg.Metrics.StatsdAddress)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "unknown extension", file: "hako.ini", body: "x=1"},
		{name: "malformed toml", file: "hako.toml", body: "[world\n"},
		{name: "invalid page size", file: "hako.toml", body: "[world]\npage_size = 0\n"},
		{name: "invalid level", file: "hako.yml", body: "logging:\n  level: loud\n"},
		{name: "invalid format", file: "hako.yml", body: "logging:\n  format: xml\n"},
		{name: "ratio out of range", file: "hako.toml", body: "[bench]\ndestroy_ratio = 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := Logging{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	_, err = Logging{Level: "nope"}.NewLogger(&buf)
	require.Error(t, err)
}
