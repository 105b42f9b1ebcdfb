// Package config loads process configuration and builds the logger.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidConfig is returned when a loaded value fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes every environment override, e.g. PPD_ADDR.
const EnvPrefix = "PPD_"

// Config contains process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file. Empty keeps sessions in memory.
	DBPath string `koanf:"db_path"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is json or console.
	LogFormat string `koanf:"log_format"`

	// AllowedOrigins feeds CORS. Comma-separated in the environment.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// MetricsEnabled serves /metrics.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// SessionTTL deletes sessions idle for longer, e.g. "72h". Zero keeps
	// them forever.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// SweepInterval is how often idle sessions are checked.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		Addr:           ":8080",
		DBPath:         "./ppd.db",
		LogLevel:       "info",
		LogFormat:      "json",
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		MetricsEnabled: true,
		SweepInterval:  time.Hour,
	}
}

// Load layers configuration, lowest precedence first:
//  1. defaults (New)
//  2. YAML file at path, or at PPD_CONFIG when path is empty
//  3. environment (PPD_ prefix)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, eris.Wrapf(err, "config: load %s", path)
		}
	}

	// PPD_DB_PATH -> db_path. List keys are comma-separated.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "allowed_origins" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, eris.Wrap(err, "config: load env")
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the values Load cannot coerce.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("%w: log_format %q must be json or console", ErrInvalidConfig, c.LogFormat)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("%w: session_ttl must not be negative", ErrInvalidConfig)
	}
	if c.SessionTTL > 0 && c.SweepInterval <= 0 {
		return fmt.Errorf("%w: sweep_interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// NewLogger builds a zap logger: production JSON, or development console.
func NewLogger(c *Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if c.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	return logger, nil
}
