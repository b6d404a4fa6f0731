package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mysteryd/internal/backend"
	"mysteryd/internal/gate"
	"mysteryd/internal/scheduler"
)

// Config holds runtime parameters for the service. It is read once at
// startup; nothing is hot-swapped.
// Zero values mean "unspecified" and are replaced by Defaults.
type Config struct {
	Addr      string          `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel  string          `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string          `json:"log_format" yaml:"log_format" toml:"log_format"`
	Backend   BackendConfig   `json:"backend" yaml:"backend" toml:"backend"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler" toml:"scheduler"`
	Gate      GateConfig      `json:"gate" yaml:"gate" toml:"gate"`
	HTTP      HTTPConfig      `json:"http" yaml:"http" toml:"http"`
}

type BackendConfig struct {
	Kind             string  `json:"kind" yaml:"kind" toml:"kind"`
	BaseURL          string  `json:"base_url" yaml:"base_url" toml:"base_url"`
	Model            string  `json:"model" yaml:"model" toml:"model"`
	APIKey           string  `json:"api_key" yaml:"api_key" toml:"api_key"`
	ModelsDir        string  `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	CtxSize          int     `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	Threads          int     `json:"threads" yaml:"threads" toml:"threads"`
	RequestTimeoutMs int     `json:"request_timeout_ms" yaml:"request_timeout_ms" toml:"request_timeout_ms"`
	MaxTokens        int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Temperature      float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
}

type SchedulerConfig struct {
	Concurrency        int    `json:"concurrency" yaml:"concurrency" toml:"concurrency"`
	BaseDelayMs        int    `json:"base_delay_ms" yaml:"base_delay_ms" toml:"base_delay_ms"`
	Backoff            string `json:"backoff" yaml:"backoff" toml:"backoff"`
	MaxDelayMs         int    `json:"max_delay_ms" yaml:"max_delay_ms" toml:"max_delay_ms"`
	DefaultPriority    int    `json:"default_priority" yaml:"default_priority" toml:"default_priority"`
	DefaultTimeoutMs   int    `json:"default_timeout_ms" yaml:"default_timeout_ms" toml:"default_timeout_ms"`
	DefaultMaxAttempts int    `json:"default_max_attempts" yaml:"default_max_attempts" toml:"default_max_attempts"`
}

type GateConfig struct {
	TTLMs int `json:"ttl_ms" yaml:"ttl_ms" toml:"ttl_ms"`
}

type HTTPConfig struct {
	MaxBodyBytes          int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	CORSEnabled           bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Package defaults.
const (
	DefaultAddr         = ":8080"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultBackendKind  = backend.KindOllama
	DefaultConcurrency  = 4
	DefaultMaxBodyBytes = 1 << 20
	DefaultHTTPTimeoutS = 120

	envAddr   = "MYSTERYD_ADDR"
	envAPIKey = "MYSTERYD_API_KEY"
)

// ApplyEnv seeds unset fields from MYSTERYD_ADDR and MYSTERYD_API_KEY.
func (c *Config) ApplyEnv() {
	if c.Addr == "" {
		c.Addr = strings.TrimSpace(os.Getenv(envAddr))
	}
	if c.Backend.APIKey == "" {
		c.Backend.APIKey = strings.TrimSpace(os.Getenv(envAPIKey))
	}
}

// Defaults fills every unset field.
func (c *Config) Defaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.Backend.Kind == "" {
		c.Backend.Kind = DefaultBackendKind
	}
	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	s := &c.Scheduler
	if s.Concurrency == 0 {
		s.Concurrency = DefaultConcurrency
	}
	if s.BaseDelayMs == 0 {
		s.BaseDelayMs = int(scheduler.DefaultBaseDelay.Milliseconds())
	}
	if s.Backoff == "" {
		s.Backoff = string(scheduler.BackoffLinear)
	}
	if s.DefaultTimeoutMs == 0 {
		s.DefaultTimeoutMs = int(scheduler.DefaultTimeout.Milliseconds())
	}
	if s.DefaultMaxAttempts == 0 {
		s.DefaultMaxAttempts = scheduler.DefaultMaxAttempts
	}
	if c.Gate.TTLMs == 0 {
		c.Gate.TTLMs = int(gate.DefaultTTL.Milliseconds())
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.HTTP.RequestTimeoutSeconds == 0 {
		c.HTTP.RequestTimeoutSeconds = DefaultHTTPTimeoutS
	}
}

// Validate reports every invalid field at once. Call after Defaults.
func (c Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", field, fmt.Sprintf(format, args...)))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		bad("log_level", "unknown level %q", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		bad("log_format", "must be json or console, got %q", c.LogFormat)
	}
	if !slices.Contains(backend.Kinds(), c.Backend.Kind) {
		bad("backend.kind", "unknown kind %q (want one of %s)", c.Backend.Kind, strings.Join(backend.Kinds(), ", "))
	}
	if c.Backend.Kind != backend.KindMock && strings.TrimSpace(c.Backend.Model) == "" {
		bad("backend.model", "required for kind %q", c.Backend.Kind)
	}
	if c.Backend.RequestTimeoutMs < 0 {
		bad("backend.request_timeout_ms", "must not be negative")
	}
	if c.Scheduler.Concurrency <= 0 {
		bad("scheduler.concurrency", "must be positive")
	}
	if c.Scheduler.BaseDelayMs < 0 || c.Scheduler.MaxDelayMs < 0 {
		bad("scheduler.base_delay_ms", "delays must not be negative")
	}
	if _, err := scheduler.ParseBackoff(c.Scheduler.Backoff); err != nil {
		bad("scheduler.backoff", "%v", err)
	}
	if c.Scheduler.DefaultTimeoutMs <= 0 {
		bad("scheduler.default_timeout_ms", "must be positive")
	}
	if c.Scheduler.DefaultMaxAttempts < 1 {
		bad("scheduler.default_max_attempts", "must be at least 1")
	}
	if c.Gate.TTLMs < 0 {
		bad("gate.ttl_ms", "must not be negative")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		bad("http.max_body_bytes", "must not be negative")
	}
	return errors.Join(errs...)
}

// BackendSettings is the adapter factory input.
func (c Config) BackendSettings() backend.Config {
	return backend.Config{
		Kind:           c.Backend.Kind,
		BaseURL:        c.Backend.BaseURL,
		Model:          c.Backend.Model,
		APIKey:         c.Backend.APIKey,
		ModelsDir:      c.Backend.ModelsDir,
		CtxSize:        c.Backend.CtxSize,
		Threads:        c.Backend.Threads,
		RequestTimeout: ms(c.Backend.RequestTimeoutMs),
		Defaults: backend.InvokeOptions{
			MaxTokens:   c.Backend.MaxTokens,
			Temperature: c.Backend.Temperature,
		},
	}
}

// SchedulerSettings is the scheduler input without stats, publisher or logger.
func (c Config) SchedulerSettings() scheduler.Config {
	return scheduler.Config{
		Concurrency: c.Scheduler.Concurrency,
		BaseDelay:   ms(c.Scheduler.BaseDelayMs),
		MaxDelay:    ms(c.Scheduler.MaxDelayMs),
		Backoff:     scheduler.Backoff(c.Scheduler.Backoff),
		Defaults: scheduler.Policy{
			Priority:    c.Scheduler.DefaultPriority,
			Timeout:     ms(c.Scheduler.DefaultTimeoutMs),
			MaxAttempts: c.Scheduler.DefaultMaxAttempts,
		},
	}
}

func (c Config) GateTTL() time.Duration { return ms(c.Gate.TTLMs) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
