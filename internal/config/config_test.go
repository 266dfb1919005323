package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/runcat/internal/config"
	"codeberg.org/mutker/runcat/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the host's config files and environment out of a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("RUNCAT_CONFIG", "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "runcat.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	isolate(t)

	configPath := writeConfig(t, `
interval = "500ms"
character = "parrot"
resource = "/usr/share/runcat/resource.toml"
theme = "dark"
auto_theme = false
theme_poll = "5s"
log_level = "debug"
metrics = true
metrics_db = "/path/to/metrics.db"
metrics_batch_size = 10
metrics_batch_timeout = "1m"
mqtt_broker = "tcp://localhost:1883"
mqtt_topic = "office/cpu"
pid_file = "/run/user/1000/runcat.pid"
`)
	t.Setenv("RUNCAT_CONFIG", configPath)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Interval)
	assert.Equal(t, "parrot", cfg.Character)
	assert.Equal(t, "/usr/share/runcat/resource.toml", cfg.Resource)
	assert.Equal(t, config.ThemeDark, cfg.Theme)
	assert.False(t, cfg.AutoTheme)
	assert.Equal(t, 5*time.Second, cfg.ThemePoll)
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, "/path/to/metrics.db", cfg.MetricsDB)
	assert.Equal(t, 10, cfg.MetricsBatchSize)
	assert.Equal(t, time.Minute, cfg.MetricsBatchTimeout)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "office/cpu", cfg.MQTTTopic)
	assert.Equal(t, "/run/user/1000/runcat.pid", cfg.PIDFile)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load(nil)
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultInterval, cfg.Interval)
	assert.Equal(t, config.DefaultCharacter, cfg.Character)
	assert.Empty(t, cfg.Resource)
	assert.Equal(t, config.ThemeAuto, cfg.Theme)
	assert.True(t, cfg.AutoTheme)
	assert.Equal(t, config.DefaultThemePoll, cfg.ThemePoll)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.Metrics)
	assert.Empty(t, cfg.MQTTBroker)
}

func TestLoadSearchesXDGConfigHome(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "runcat"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runcat", "runcat.toml"), []byte(`character = "horse"`), 0o600))

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "horse", cfg.Character)
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)

	configPath := writeConfig(t, `
interval = "2s"
character = "parrot"
log_level = "error"
`)

	t.Setenv("RUNCAT_INTERVAL", "3s")
	t.Setenv("RUNCAT_LOG_LEVEL", "warning")

	cfg, err := config.Load([]string{"--log-level", "debug"}, config.WithConfigFile(configPath))
	require.NoError(t, err)

	assert.Equal(t, "parrot", cfg.Character, "file beats default")
	assert.Equal(t, 3*time.Second, cfg.Interval, "env beats file")
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel, "flag beats env")
}

func TestLoadEnvPrefix(t *testing.T) {
	isolate(t)
	t.Setenv("CATTRAY_CHARACTER", "horse")

	cfg, err := config.Load(nil, config.WithEnvPrefix("CATTRAY"))
	require.NoError(t, err)
	assert.Equal(t, "horse", cfg.Character)
}

func TestLoadConfigFlag(t *testing.T) {
	isolate(t)
	configPath := writeConfig(t, `theme = "light"`)

	cfg, err := config.Load([]string{"--config", configPath})
	require.NoError(t, err)
	assert.Equal(t, config.ThemeLight, cfg.Theme)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	isolate(t)
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("RUNCAT_CONFIG", configPath)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := config.Load(nil, config.WithConfigFile(filepath.Join(t.TempDir(), "missing.toml")))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{name: "log level", content: `log_level = "invalid"`, code: errors.ErrInvalidLogLevel},
		{name: "theme", content: `theme = "sepia"`, code: errors.ErrInvalidTheme},
		{name: "interval", content: `interval = "0s"`, code: errors.ErrInvalidInterval},
		{name: "theme poll", content: `theme_poll = "-1s"`, code: errors.ErrInvalidInterval},
		{name: "batch size", content: `metrics_batch_size = -1`, code: errors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			_, err := config.Load(nil, config.WithConfigFile(writeConfig(t, tt.content)))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLogLevelFlag(t *testing.T) {
	isolate(t)

	cfg, err := config.Load([]string{"--log-level", "debug"})
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel, "Expected LogLevel to be set by flag")
}

func TestUnknownFlag(t *testing.T) {
	isolate(t)

	_, err := config.Load([]string{"--temperature", "80"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrBindFlags))
}
