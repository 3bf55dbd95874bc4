package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/t77yq/sonde/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	require.Len(t, cfg.Engines, 2)
	nagios, engine := cfg.Engines[0], cfg.Engines[1]
	assert.Equal(t, "nagios", nagios.Name)
	assert.Equal(t, "/home/merethis/nagios/nagios", nagios.Binary)
	assert.Equal(t, "/home/merethis/nagios/nagiostats", nagios.StatsBinary)
	assert.Equal(t, "/home/merethis/nagios/log", nagios.ReportDir)
	assert.Equal(t, []string{"rw", "spool"}, nagios.VarSubdirs)

	assert.Equal(t, "centengine", engine.Name)
	assert.Equal(t, "/home/merethis/engine/centengine", engine.Binary)
	assert.Equal(t, "/home/merethis/engine/centenginestats", engine.StatsBinary)
	assert.Equal(t, "/home/merethis/engine/log", engine.ReportDir)
	// both engines share the nagios object configuration
	assert.Equal(t, nagios.ConfigFile, engine.ConfigFile)
	assert.Equal(t, nagios.ServicesFile, engine.ServicesFile)
	assert.Equal(t, nagios.VarDir, engine.VarDir)

	assert.Equal(t, "localhost", cfg.Workload.HostName)
	assert.Equal(t, "check-service-alive", cfg.Workload.CheckCommand)
	assert.Equal(t, "generic-service", cfg.Workload.Use)

	assert.Equal(t, []string{"ps", "aux"}, cfg.Probe.ListCommand)
	assert.Equal(t, 5, cfg.Probe.MemoryField)
	assert.Equal(t, "/proc/loadavg", cfg.Probe.LoadAvgFile)

	assert.Equal(t, "@every 5m", cfg.Sampling.Schedule)
	assert.Equal(t, time.Second, cfg.Sampling.Settle)
	assert.Empty(t, cfg.NATS.URL)
	assert.Empty(t, cfg.Metrics.Listen)
}

func TestLoadFile(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "bench.yaml")
	content := `
engines:
  - name: centengine
    binary: /opt/engine/centengine
    stats_binary: /opt/engine/centenginestats
    config_file: /opt/engine/etc/centengine.cfg
    services_file: /opt/engine/etc/services.cfg
    report_dir: /var/log/sonde
    var_dir: /opt/engine/var
    var_subdirs: [rw]
probe:
  memory_field: 4
sampling:
  schedule: "@every 1m"
  settle: 3s
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Engines, 1)
	assert.Equal(t, "centengine", cfg.Engines[0].Name)
	assert.Equal(t, []string{"rw"}, cfg.Engines[0].VarSubdirs)
	assert.Equal(t, 4, cfg.Probe.MemoryField)
	assert.Equal(t, "@every 1m", cfg.Sampling.Schedule)
	assert.Equal(t, 3*time.Second, cfg.Sampling.Settle)
	assert.Equal(t, "json", cfg.Log.Format)
	// untouched keys keep their defaults
	assert.Equal(t, "/proc/loadavg", cfg.Probe.LoadAvgFile)
}

func TestLoadDefaultLocation(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "sonde.yaml"),
		[]byte("metrics:\n  listen: \":9110\"\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9110", cfg.Metrics.Listen)
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SONDE_LOG_LEVEL", "debug")
	t.Setenv("SONDE_NATS_URL", "nats://127.0.0.1:4222")
	t.Setenv("SONDE_SAMPLING_SETTLE", "2s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, 2*time.Second, cfg.Sampling.Settle)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())

	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
		target error
	}{
		{"no engines", func(c *Config) { c.Engines = nil }, ErrNoEngines},
		{"missing binary", func(c *Config) { c.Engines[0].Binary = "" }, ErrInvalidConfig},
		{"duplicate name", func(c *Config) { c.Engines[1].Name = c.Engines[0].Name }, ErrInvalidConfig},
		{"empty list command", func(c *Config) { c.Probe.ListCommand = nil }, ErrInvalidConfig},
		{"negative field", func(c *Config) { c.Probe.MemoryField = -1 }, ErrInvalidConfig},
		{"empty schedule", func(c *Config) { c.Sampling.Schedule = "" }, ErrInvalidConfig},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			cfg.Engines = append([]model.EngineTarget(nil), base.Engines...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestLogConfigBuild(t *testing.T) {
	logger, err := LogConfig{Level: "warn", Format: "json"}.Build()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = LogConfig{Level: "loud", Format: "console"}.Build()
	assert.Error(t, err)
}
