package goSession

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MrEthical07/goSession/retry"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a [Client].
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Retry     RetryConfig     `yaml:"retry"`
	Token     TokenConfig     `yaml:"token"`
	Notify    NotifyConfig    `yaml:"notify"`
	Transport TransportConfig `yaml:"transport"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	// Language is the fallback language for user-facing messages when the
	// call context carries none.
	Language string `yaml:"language"`
}

/*
====================================
SERVICE CONFIG
====================================
*/

// ServiceConfig names the application in logs.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

/*
====================================
RETRY CONFIG
====================================
*/

// RetryConfig bounds the retry engine. Attempt n waits n*BaseDelay before
// attempt n+1.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls where the credential is persisted.
type TokenConfig struct {
	StorageKey string `yaml:"storage_key"`
	// RedisPrefix and RedisTTL apply when the builder is given a redis client.
	RedisPrefix string        `yaml:"redis_prefix"`
	RedisTTL    time.Duration `yaml:"redis_ttl"`
}

/*
====================================
NOTIFY CONFIG
====================================
*/

// NotifyConfig controls user-facing notifications.
type NotifyConfig struct {
	TTL time.Duration `yaml:"ttl"`
	// BufferSize > 0 delivers notifications from a background goroutine.
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
	// ReportFailures shows one notification per failed operation for every
	// kind except AUTHENTICATION, which the session guard owns.
	ReportFailures bool `yaml:"report_failures"`
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig tunes the HTTP pipeline.
type TransportConfig struct {
	MaxErrorBodyBytes int64 `yaml:"max_error_body_bytes"`
	LogRequests       bool  `yaml:"log_requests"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	rc := retry.DefaultConfig()
	return Config{
		Service: ServiceConfig{
			Name: "gosession",
		},
		Retry: RetryConfig{
			MaxAttempts: rc.MaxAttempts,
			BaseDelay:   rc.BaseDelay,
		},
		Token: TokenConfig{
			StorageKey:  "auth_token",
			RedisPrefix: "gs",
		},
		Notify: NotifyConfig{
			TTL:        5 * time.Second,
			BufferSize: 64,
			DropIfFull: true,
		},
		Transport: TransportConfig{
			MaxErrorBodyBytes: 64 << 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Language: "en",
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

func (c RetryConfig) engineConfig() retry.Config {
	return retry.Config{MaxAttempts: c.MaxAttempts, BaseDelay: c.BaseDelay}
}

/*
====================================
VALIDATION
====================================
*/

const (
	maxRetryAttempts  = 10
	maxBaseDelay      = time.Minute
	maxErrorBodyBytes = 16 << 20
)

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	// Retry
	if c.Retry.MaxAttempts < 1 {
		return errors.New("Retry MaxAttempts must be >= 1")
	}
	if c.Retry.MaxAttempts > maxRetryAttempts {
		return fmt.Errorf("Retry MaxAttempts must be <= %d", maxRetryAttempts)
	}
	if c.Retry.BaseDelay < 0 {
		return errors.New("Retry BaseDelay must be >= 0")
	}
	if c.Retry.BaseDelay > maxBaseDelay {
		return errors.New("Retry BaseDelay must be <= 1m")
	}

	// Token
	if c.Token.StorageKey == "" {
		return errors.New("Token StorageKey must not be empty")
	}
	if c.Token.RedisTTL < 0 {
		return errors.New("Token RedisTTL must be >= 0")
	}

	// Notify
	if c.Notify.TTL <= 0 {
		return errors.New("Notify TTL must be > 0")
	}
	if c.Notify.BufferSize < 0 {
		return errors.New("Notify BufferSize must be >= 0")
	}

	// Transport
	if c.Transport.MaxErrorBodyBytes <= 0 {
		return errors.New("Transport MaxErrorBodyBytes must be > 0")
	}
	if c.Transport.MaxErrorBodyBytes > maxErrorBodyBytes {
		return errors.New("Transport MaxErrorBodyBytes must be <= 16MiB")
	}

	if c.Language != "" {
		if _, err := language.Parse(c.Language); err != nil {
			return fmt.Errorf("Language %q is not a valid BCP 47 tag", c.Language)
		}
	}
	return nil
}

/*
====================================
LINT
====================================
*/

// LintSeverity ranks a lint finding.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
)

func (s LintSeverity) String() string {
	if s == LintWarn {
		return "WARN"
	}
	return "INFO"
}

// LintWarning is a valid but questionable setting.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings from [Config.Lint].
type LintResult []LintWarning

// Codes returns the finding codes in order.
func (r LintResult) Codes() []string {
	codes := make([]string, len(r))
	for i, w := range r {
		codes[i] = w.Code
	}
	return codes
}

// BySeverity keeps findings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// Lint flags settings that validate but are unlikely to be intended. It
// never fails; call Validate first.
func (c *Config) Lint() LintResult {
	var out LintResult
	add := func(code string, sev LintSeverity, msg string) {
		out = append(out, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.Retry.MaxAttempts == 1 {
		add("retry_disabled", LintInfo, "MaxAttempts is 1; transient failures are never retried")
	}
	if c.Retry.BaseDelay == 0 && c.Retry.MaxAttempts > 1 {
		add("retry_no_delay", LintWarn, "BaseDelay is 0; retries hit the server back to back")
	}
	if worst := c.worstRetryWait(); worst > 30*time.Second {
		add("retry_wait_long", LintWarn, fmt.Sprintf("an operation may wait up to %s between attempts", worst))
	}
	if c.Notify.TTL < time.Second {
		add("notify_ttl_short", LintWarn, "notifications disappear in under a second")
	}
	if c.Notify.BufferSize > 0 && !c.Notify.DropIfFull {
		add("notify_blocking", LintInfo, "a full notification buffer blocks the failing call")
	}
	if c.Transport.MaxErrorBodyBytes > 1<<20 {
		add("error_body_large", LintInfo, "error bodies over 1MiB are buffered for classification")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		add("latency_without_metrics", LintWarn, "latency histograms have no effect while metrics are disabled")
	}
	if c.Token.RedisTTL > 0 && c.Token.RedisTTL < time.Minute {
		add("redis_ttl_short", LintWarn, "stored credentials expire from redis within a minute")
	}
	return out
}

func (c *Config) worstRetryWait() time.Duration {
	if c.Retry.MaxAttempts < 2 {
		return 0
	}
	return time.Duration(c.Retry.MaxAttempts-1) * c.Retry.BaseDelay
}

/*
====================================
FILE LOADING
====================================
*/

// LoadConfigFile reads a YAML config over [DefaultConfig]. ${VAR} references
// are expanded from the environment before parsing. The result is validated.
func LoadConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(raw)
}

// ParseConfig is [LoadConfigFile] for an in-memory document.
func ParseConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
