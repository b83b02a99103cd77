// Package config loads octopus settings. Priority: defaults < file < environment.
package config

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the file.
const (
	EnvLogLevel      = "OCTOPUS_LOG_LEVEL"
	EnvLogJSON       = "OCTOPUS_LOG_JSON"
	EnvBufferSize    = "OCTOPUS_BUFFER_SIZE"
	EnvRepositoryDir = "OCTOPUS_REPOSITORY_DIR"
	EnvMetricsAddr   = "OCTOPUS_METRICS_ADDR"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Engine     EngineConfig     `yaml:"engine"`
	Repository RepositoryConfig `yaml:"repository"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type LogConfig struct {
	Name  string `yaml:"name"`
	Level string `yaml:"level"` // trace | debug | info | warn | error | off
	JSON  bool   `yaml:"json"`
}

type EngineConfig struct {
	// BufferSize is the capacity of every channel between two statements.
	BufferSize int `yaml:"buffer_size"`
}

type RepositoryConfig struct {
	// Dir holds one document per model. Empty keeps models in memory.
	Dir string `yaml:"dir"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	// Address serves /metrics while a model runs. Empty disables it.
	Address string `yaml:"address"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Name:  "octopus",
			Level: "info",
		},
		Engine: EngineConfig{
			BufferSize: 16,
		},
		Metrics: MetricsConfig{
			Namespace: "octopus",
		},
	}
}

// Load reads path over the defaults, then applies the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read %s", path)
		}
		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse %s", path)
		}
	}

	err := cfg.applyEnv(os.Getenv)
	if err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvLogJSON); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%s=%q is not a boolean", EnvLogJSON, v)
		}
		c.Log.JSON = b
	}
	if v := getenv(EnvBufferSize); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%s=%q is not an integer", EnvBufferSize, v)
		}
		c.Engine.BufferSize = n
	}
	if v := getenv(EnvRepositoryDir); v != "" {
		c.Repository.Dir = v
	}
	if v := getenv(EnvMetricsAddr); v != "" {
		c.Metrics.Address = v
	}

	return nil
}

func (c *Config) Validate() error {
	if hclog.LevelFromString(c.Log.Level) == hclog.NoLevel {
		return errors.Wrapf(ErrInvalidConfig, "unknown log level %q", c.Log.Level)
	}
	if c.Engine.BufferSize < 0 {
		return errors.Wrapf(ErrInvalidConfig, "buffer size must not be negative, got %d", c.Engine.BufferSize)
	}
	if strings.TrimSpace(c.Metrics.Namespace) == "" {
		return errors.Wrap(ErrInvalidConfig, "metrics namespace cannot be empty")
	}

	return nil
}
