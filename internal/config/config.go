package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"

	"epw-insights/pkg/comfort"
	"epw-insights/pkg/psychro"
)

// Environment variables understood by LoadConfig.
const (
	EnvPrefix     = "EPW_"
	EnvConfigFile = "EPW_CONFIG"
	// envNesting separates nested keys in variable names, e.g. EPW_SERVER__PORT.
	envNesting = "__"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig        `koanf:"server"`
	Logging   LoggingConfig       `koanf:"logging"`
	Ingestion IngestionConfig     `koanf:"ingestion"`
	Chart     psychro.ChartBounds `koanf:"chart"`
	Comfort   ComfortConfig       `koanf:"comfort"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or text
}

// IngestionConfig controls where EPW files are read from and how often the
// directory is rescanned. An empty RescanSchedule disables rescans.
type IngestionConfig struct {
	DataDir        string `koanf:"data_dir"`
	Pattern        string `koanf:"pattern"`
	RescanSchedule string `koanf:"rescan_schedule"`
}

// ComfortConfig holds the parameter presets served by the comfort API.
type ComfortConfig struct {
	ASHRAE comfort.Parameters `koanf:"ashrae"`
	ISO    comfort.Parameters `koanf:"iso"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Ingestion: IngestionConfig{
			DataDir: "./epw_data",
			Pattern: "*.epw",
		},
		Chart: psychro.DefaultChartBounds,
		Comfort: ComfortConfig{
			ASHRAE: comfort.ASHRAE55Defaults,
			ISO:    comfort.ISO7730Defaults,
		},
	}
}

// LoadConfig layers, from lowest to highest precedence, the defaults, the
// YAML file named by EPW_CONFIG (if set) and EPW_* environment variables.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if s == strings.TrimPrefix(EnvConfigFile, EnvPrefix) {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(s), envNesting, ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %v", ErrLoadConfig, err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	return cfg, nil
}

// Validate checks value ranges that the loader cannot enforce.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: server.shutdown_timeout must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalidConfig, c.Logging.Format)
	}

	if c.Ingestion.DataDir == "" {
		return fmt.Errorf("%w: ingestion.data_dir must not be empty", ErrInvalidConfig)
	}
	if _, err := filepath.Match(c.Ingestion.Pattern, "probe.epw"); err != nil || c.Ingestion.Pattern == "" {
		return fmt.Errorf("%w: ingestion.pattern %q", ErrInvalidConfig, c.Ingestion.Pattern)
	}
	if c.Ingestion.RescanSchedule != "" {
		if _, err := cron.ParseStandard(c.Ingestion.RescanSchedule); err != nil {
			return fmt.Errorf("%w: ingestion.rescan_schedule: %v", ErrInvalidConfig, err)
		}
	}

	if !c.Chart.Valid() {
		return fmt.Errorf("%w: chart bounds %+v", ErrInvalidConfig, c.Chart)
	}
	if err := c.Comfort.ASHRAE.Validate(); err != nil {
		return fmt.Errorf("%w: comfort.ashrae: %v", ErrInvalidConfig, err)
	}
	if err := c.Comfort.ISO.Validate(); err != nil {
		return fmt.Errorf("%w: comfort.iso: %v", ErrInvalidConfig, err)
	}
	return nil
}
