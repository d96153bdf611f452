package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is dagrun's run-time configuration.
type Config struct {
	Runtime       RuntimeConfig       `mapstructure:"runtime"`
	Log           LogConfig           `mapstructure:"log"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// RuntimeConfig configures the default Options passed to runtime.Run when a
// Builder doesn't override them explicitly.
type RuntimeConfig struct {
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	DefaultTimeout    time.Duration `mapstructure:"default_timeout"`
	DeepCopyOutputs   bool          `mapstructure:"deep_copy_outputs"`
	EnforceParamNames bool          `mapstructure:"enforce_param_names"`
}

// LogConfig configures the process-wide logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig configures the observability.Provider wired into Run.
type ObservabilityConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// Load reads dagrun's configuration, layered lowest to highest priority:
// built-in defaults, a config.yaml discovered in the current directory or
// ./config, then DAGRUN_-prefixed environment variables, with a key's dots
// written as underscores (log.level is DAGRUN_LOG_LEVEL). A .env file, if
// present, is first loaded into the process environment without overriding
// variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range []string{".", "./config"} {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config.yaml: %w", err)
		}
	}

	v.SetEnvPrefix("DAGRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// LoadFile reads configuration from exactly one YAML file, skipping the
// working-directory discovery Load performs; environment overrides apply
// as in Load.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", filepath.Base(path), err)
	}

	v.SetEnvPrefix("DAGRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("runtime.max_concurrency", 0)
	v.SetDefault("runtime.default_timeout", "30s")
	v.SetDefault("runtime.deep_copy_outputs", false)
	v.SetDefault("runtime.enforce_param_names", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.service_name", "dagrun")
}
