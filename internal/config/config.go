package config

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xraph/locator/internal/errors"
	"github.com/xraph/locator/internal/logger"
	"github.com/xraph/locator/internal/shared"
)

// Environment variables overriding file values.
const (
	EnvName             = "LOCATOR_NAME"
	EnvLogLevel         = "LOCATOR_LOG_LEVEL"
	EnvLogFormat        = "LOCATOR_LOG_FORMAT"
	EnvMetricsEnabled   = "LOCATOR_METRICS_ENABLED"
	EnvMetricsNamespace = "LOCATOR_METRICS_NAMESPACE"
	EnvTracingEnabled   = "LOCATOR_TRACING_ENABLED"
)

// Config configures a locator.
type Config struct {
	Name    string        `yaml:"name"`
	Logging logger.Config `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`

	// Scopes lists extra scope names accepted at commit, on top of PerLookup
	// and Singleton. Services in an extra scope are cached like singletons.
	Scopes []string `yaml:"scopes"`

	// ContextLoader enables the process-wide class registry as fallback
	// loader.
	ContextLoader bool `yaml:"context_loader"`
}

// MetricsConfig configures prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures opentelemetry spans.
type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Tracer  string `yaml:"tracer"`
}

// Default returns the configuration used when none is supplied.
func Default() Config {
	return Config{
		Name: "default",
		Logging: logger.Config{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "locator",
		},
		Tracing: TracingConfig{
			Enabled: true,
			Tracer:  "github.com/xraph/locator",
		},
		ContextLoader: true,
	}
}

// Parse decodes YAML on top of Default. ${VAR} references are expanded
// before decoding and unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	expanded := os.ExpandEnv(string(data))
	if strings.TrimSpace(expanded) == "" {
		return cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, errors.ErrInvalidConfig("yaml", err)
	}
	return cfg, nil
}

// Load reads a YAML file, applies environment overrides and validates.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.ErrInvalidConfig(path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides values from LOCATOR_* variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvName); ok {
		c.Name = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Logging.Format = v
	}
	if v, ok := os.LookupEnv(EnvMetricsNamespace); ok {
		c.Metrics.Namespace = v
	}
	if v, ok := os.LookupEnv(EnvMetricsEnabled); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.ErrInvalidConfig(EnvMetricsEnabled, err)
		}
		c.Metrics.Enabled = b
	}
	if v, ok := os.LookupEnv(EnvTracingEnabled); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.ErrInvalidConfig(EnvTracingEnabled, err)
		}
		c.Tracing.Enabled = b
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.ErrInvalidConfig("name", fmt.Errorf("must not be empty"))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return errors.ErrInvalidConfig("logging.level", err)
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return errors.ErrInvalidConfig("metrics.namespace", fmt.Errorf("required when metrics are enabled"))
	}

	seen := make(map[string]bool, len(c.Scopes))
	for _, s := range c.Scopes {
		if s == "" || s == shared.ScopePerLookup || s == shared.ScopeSingleton || seen[s] {
			return errors.ErrInvalidConfig("scopes", fmt.Errorf("invalid extra scope %q", s))
		}
		seen[s] = true
	}
	return nil
}

// KnownScopes returns every scope name a locator built from c accepts.
func (c Config) KnownScopes() []string {
	return append([]string{shared.ScopePerLookup, shared.ScopeSingleton}, slices.Clone(c.Scopes)...)
}
