package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/feedline/internal/timeline"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func hasField(errs []ValidationError, field string) bool {
	for _, e := range errs {
		if strings.Contains(e.Field, field) {
			return true
		}
	}
	return false
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, timeline.DefaultLimits(), cfg.TimelineLimits())
	assert.Equal(t, "feedline.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:7411", cfg.Server.Addr)
	assert.True(t, cfg.Server.Metrics)
	assert.Empty(t, Validate(cfg))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "feedline.yaml", `
limits:
  max_queued_items: 10
store:
  path: /var/lib/feedline/journal.db
log:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Limits.MaxQueuedItems)
	assert.Equal(t, 40, cfg.Limits.TruncateCeiling, "unset fields keep defaults")
	assert.Equal(t, "/var/lib/feedline/journal.db", cfg.Store.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "feedline.toml", `
[limits]
max_queued_items = 5
truncate_ceiling = 8
truncate_floor = 4

[server]
addr = ":9000"
metrics = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, timeline.Limits{MaxQueuedItems: 5, TruncateCeiling: 8, TruncateFloor: 4}, cfg.TimelineLimits())
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.False(t, cfg.Server.Metrics)
	assert.Equal(t, "feedline.db", cfg.Store.Path)
}

func TestLoad_EmptyYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "bad.yaml", "limits:\n  max_queue: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")

	_, err = Load(writeConfig(t, "bad.toml", "[store]\nfile = \"x.db\"\n"))
	require.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "broken.toml", "[limits\n"))
	require.Error(t, err)
}

func TestDecode_UnknownFormat(t *testing.T) {
	cfg := Default()
	err := Decode([]byte("{}"), Format("ini"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config format "ini"`)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero queue cap", func(c *Config) { c.Limits.MaxQueuedItems = 0 }, "max_queued_items"},
		{"floor above ceiling", func(c *Config) { c.Limits.TruncateFloor = 50 }, "truncate_floor"},
		{"floor equals ceiling", func(c *Config) { c.Limits.TruncateFloor = 40 }, "truncate_floor"},
		{"empty store path", func(c *Config) { c.Store.Path = "" }, "path"},
		{"unknown level", func(c *Config) { c.Log.Level = "verbose" }, "level"},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, "format"},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			errs := Validate(cfg)
			require.NotEmpty(t, errs)
			assert.True(t, hasField(errs, tt.field), "errors: %v", errs)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "store.path: empty", ValidationError{Field: "store.path", Message: "empty"}.Error())
	assert.Equal(t, "schema broken", ValidationError{Message: "schema broken"}.Error())
}

func TestLogConfig_Logger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := LogConfig{Level: "warn", Format: "json"}.Logger(&buf, false)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "seq", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger, err = LogConfig{Level: "warn", Format: "text"}.Logger(&buf, true)
	require.NoError(t, err)
	logger.Debug("verbose wins")
	assert.Contains(t, buf.String(), "verbose wins")

	_, err = LogConfig{Level: "loud", Format: "text"}.Logger(&buf, false)
	assert.Error(t, err)
	_, err = LogConfig{Level: "info", Format: "xml"}.Logger(&buf, false)
	assert.Error(t, err)
}
