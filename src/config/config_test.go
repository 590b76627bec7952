package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `name: "trend-screener-test"
host: "127.0.0.1"
port: 8765
log_level: "DEBUG"
network:
  timeout: 30
  retries: 3
  concurrent_requests: 5
providers:
  market:
    name: "polygon"
    base_url: "https://api.polygon.io"
    api_key_env: "POLYGON_API_KEY"
  trends:
    name: "serpapi"
    base_url: "https://serpapi.com"
    api_key_env: "SERPAPI_API_KEY"
storage:
  db_type: "sqlite"
  db_path: "test.db"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "xnys", cfg.Calendar.Market)
	assert.Equal(t, "America/New_York", cfg.Calendar.Timezone)
	assert.Equal(t, 7, cfg.Providers.Trends.WindowDays)
	assert.Equal(t, 480, cfg.Providers.Trends.TzOffset)
	assert.Equal(t, []int{4, 5, 6}, cfg.Providers.Trends.HourBucket)
	assert.Equal(t, 5, cfg.Providers.Trends.BatchSize)
	assert.Equal(t, 90, cfg.Storage.RetentionDays)
	assert.Equal(t, "output", cfg.Report.OutputDir)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestNewConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing name", "host: x\nport: 8765\n"},
		{"bad port", "name: x\nport: 80\n"},
		{"sqlite without path", "name: x\nport: 8765\nnetwork:\n  timeout: 30\n  concurrent_requests: 5\nstorage:\n  db_type: sqlite\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

// -----------------------------------------------------------------------------

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, testYAML))
	require.NoError(t, err)

	cfg.Screener.MinGapUp = 3.5
	cfg.Providers.Trends.BatchSize = 8

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(path))

	reloaded, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, reloaded.Name)
	assert.Equal(t, 3.5, reloaded.Screener.MinGapUp)
	assert.Equal(t, 8, reloaded.Providers.Trends.BatchSize)
	assert.Equal(t, cfg.Calendar.Timezone, reloaded.Calendar.Timezone)
}

// -----------------------------------------------------------------------------

func TestParseMarketCap(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"100M", 100_000_000},
		{"2.5B", 2_500_000_000},
		{"1b", 1_000_000_000},
		{"750000", 750000},
	}
	for _, tc := range cases {
		got, err := ParseMarketCap(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseMarketCapInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-5M", "0", "12X"} {
		_, err := ParseMarketCap(in)
		assert.Error(t, err, in)
	}
}
