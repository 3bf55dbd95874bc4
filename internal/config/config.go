package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/t77yq/sonde/internal/model"
	"github.com/t77yq/sonde/internal/probe"
	"github.com/t77yq/sonde/internal/workload"
)

// EnvPrefix prefixes every environment override, e.g. SONDE_LOG_LEVEL
const EnvPrefix = "SONDE"

// Config is the complete benchmark configuration
type Config struct {
	Engines  []model.EngineTarget `mapstructure:"engines"`
	Workload WorkloadConfig       `mapstructure:"workload"`
	Probe    ProbeConfig          `mapstructure:"probe"`
	Sampling SamplingConfig       `mapstructure:"sampling"`
	Log      LogConfig            `mapstructure:"log"`
	NATS     NATSConfig           `mapstructure:"nats"`
	Metrics  MetricsConfig        `mapstructure:"metrics"`
}

type WorkloadConfig struct {
	HostName     string `mapstructure:"host_name"`
	CheckCommand string `mapstructure:"check_command"`
	Use          string `mapstructure:"use"`
}

type ProbeConfig struct {
	ListCommand    []string      `mapstructure:"list_command"`
	MemoryField    int           `mapstructure:"memory_field"`
	LoadAvgFile    string        `mapstructure:"loadavg_file"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

type SamplingConfig struct {
	Schedule string        `mapstructure:"schedule"`
	Settle   time.Duration `mapstructure:"settle"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NATSConfig enables progress events when URL is set
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	Name          string `mapstructure:"name"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// MetricsConfig enables the prometheus endpoint when Listen is set
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

var defaultEngines = []map[string]interface{}{
	{
		"name":          "nagios",
		"binary":        "/home/merethis/nagios/nagios",
		"stats_binary":  "/home/merethis/nagios/nagiostats",
		"config_file":   "/home/merethis/nagios/etc/nagios.cfg",
		"services_file": "/home/merethis/nagios/etc/objects/services.cfg",
		"report_dir":    "/home/merethis/nagios/log",
		"var_dir":       "/home/merethis/nagios/var",
		"var_subdirs":   []string{"rw", "spool"},
	},
	{
		"name":          "centengine",
		"binary":        "/home/merethis/engine/centengine",
		"stats_binary":  "/home/merethis/engine/centenginestats",
		"config_file":   "/home/merethis/nagios/etc/nagios.cfg",
		"services_file": "/home/merethis/nagios/etc/objects/services.cfg",
		"report_dir":    "/home/merethis/engine/log",
		"var_dir":       "/home/merethis/nagios/var",
		"var_subdirs":   []string{"rw", "spool"},
	},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engines", defaultEngines)

	v.SetDefault("workload.host_name", workload.DefaultServiceTemplate.HostName)
	v.SetDefault("workload.check_command", workload.DefaultServiceTemplate.CheckCommand)
	v.SetDefault("workload.use", workload.DefaultServiceTemplate.Use)

	v.SetDefault("probe.list_command", probe.DefaultConfig.ListCommand)
	v.SetDefault("probe.memory_field", probe.DefaultConfig.MemoryField)
	v.SetDefault("probe.loadavg_file", probe.DefaultConfig.LoadAvgFile)
	v.SetDefault("probe.command_timeout", 30*time.Second)

	v.SetDefault("sampling.schedule", "@every 5m")
	v.SetDefault("sampling.settle", time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.name", "sonde")
	v.SetDefault("nats.subject_prefix", "sonde")

	v.SetDefault("metrics.listen", "")
}

// Load builds the configuration from defaults, an optional YAML file and
// SONDE_* environment variables. An explicit path must exist; without one
// ./config/sonde.yaml is read when present.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("sonde")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if len(c.Engines) == 0 {
		return ErrNoEngines
	}

	seen := make(map[string]bool, len(c.Engines))
	for i, e := range c.Engines {
		required := []struct{ key, value string }{
			{"name", e.Name},
			{"binary", e.Binary},
			{"stats_binary", e.StatsBinary},
			{"config_file", e.ConfigFile},
			{"services_file", e.ServicesFile},
			{"report_dir", e.ReportDir},
		}
		for _, r := range required {
			if r.value == "" {
				return fmt.Errorf("engines[%d].%s is empty: %w", i, r.key, ErrInvalidConfig)
			}
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate engine name %q: %w", e.Name, ErrInvalidConfig)
		}
		seen[e.Name] = true
	}

	if len(c.Probe.ListCommand) == 0 {
		return fmt.Errorf("probe.list_command is empty: %w", ErrInvalidConfig)
	}
	if c.Probe.MemoryField < 0 {
		return fmt.Errorf("probe.memory_field must not be negative: %w", ErrInvalidConfig)
	}
	if c.Sampling.Schedule == "" {
		return fmt.Errorf("sampling.schedule is empty: %w", ErrInvalidConfig)
	}
	if c.Sampling.Settle < 0 {
		return fmt.Errorf("sampling.settle must not be negative: %w", ErrInvalidConfig)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log.format %q: %w", c.Log.Format, ErrInvalidConfig)
	}

	return nil
}

// ServiceTemplate returns the attributes written for every generated check
func (c WorkloadConfig) ServiceTemplate() workload.ServiceTemplate {
	return workload.ServiceTemplate{
		HostName:     c.HostName,
		CheckCommand: c.CheckCommand,
		Use:          c.Use,
	}
}

func (c ProbeConfig) SystemConfig() probe.Config {
	return probe.Config{
		ListCommand: c.ListCommand,
		MemoryField: c.MemoryField,
		LoadAvgFile: c.LoadAvgFile,
	}
}
