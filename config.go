package yggauth

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/yggauth/document"
)

// Config is the full engine configuration. Field tags name the keys used by
// file-based configuration loaders.
type Config struct {
	Remote     RemoteConfig     `koanf:"remote"`
	Validation ValidationConfig `koanf:"validation"`
	Document   DocumentConfig   `koanf:"document"`
	Executor   ExecutorConfig   `koanf:"executor"`
	Audit      AuditConfig      `koanf:"audit"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Store      StoreConfig      `koanf:"store"`
}

/*
====================================
REMOTE CONFIG
====================================
*/

// RemoteConfig configures the default Yggdrasil HTTP client. It is ignored
// when the Builder is given an Authenticator.
type RemoteConfig struct {
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
	UserAgent    string        `koanf:"user_agent"`
	AgentName    string        `koanf:"agent_name"`
	AgentVersion int           `koanf:"agent_version"`
}

/*
====================================
VALIDATION CONFIG
====================================
*/

// ValidationConfig controls how task outcomes map onto account status.
type ValidationConfig struct {
	// DowngradeOnNetworkError makes a Validate or Refresh that fails with
	// ErrNetwork drop the verified status. By default transient failures
	// keep it.
	DowngradeOnNetworkError bool `koanf:"downgrade_on_network_error"`
	// ExpiryLeeway makes CreateCheckTask treat access tokens expiring within
	// the leeway as expired.
	ExpiryLeeway time.Duration `koanf:"expiry_leeway"`
}

// DocumentConfig selects the persisted encoding: "json" or "msgpack".
type DocumentConfig struct {
	Encoding string `koanf:"encoding"`
}

// ExecutorConfig sizes the task executor. PoolSize 0 runs each task on its
// own goroutine.
type ExecutorConfig struct {
	PoolSize       int           `koanf:"pool_size"`
	Nonblocking    bool          `koanf:"nonblocking"`
	ReleaseTimeout time.Duration `koanf:"release_timeout"`
}

// AuditConfig controls the audit dispatcher.
//
// EmitTimeout bounds how long a finishing task waits for queue room when
// DropIfFull is off. Events still waiting after it are dropped.
type AuditConfig struct {
	Enabled     bool          `koanf:"enabled"`
	BufferSize  int           `koanf:"buffer_size"`
	DropIfFull  bool          `koanf:"drop_if_full"`
	EmitTimeout time.Duration `koanf:"emit_timeout"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms"`
}

// StoreConfig configures the Redis account store built by Builder.WithRedis.
type StoreConfig struct {
	RedisPrefix string        `koanf:"redis_prefix"`
	TTL         time.Duration `koanf:"ttl"`
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns the configuration New starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Remote: RemoteConfig{
			BaseURL:      "https://authserver.mojang.com",
			Timeout:      15 * time.Second,
			AgentName:    "Minecraft",
			AgentVersion: 1,
		},
		Validation: ValidationConfig{
			DowngradeOnNetworkError: false,
			ExpiryLeeway:            0,
		},
		Document: DocumentConfig{
			Encoding: "json",
		},
		Executor: ExecutorConfig{
			PoolSize:       0,
			Nonblocking:    false,
			ReleaseTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:     false,
			BufferSize:  1024,
			DropIfFull:  true,
			EmitTimeout: 250 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Store: StoreConfig{
			RedisPrefix: "ygg",
			TTL:         0,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	// Remote
	u, err := url.Parse(strings.TrimSpace(c.Remote.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("Remote BaseURL must be an absolute http(s) URL")
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("Remote Timeout must be > 0")
	}
	if strings.TrimSpace(c.Remote.AgentName) == "" {
		return errors.New("Remote AgentName must not be empty")
	}
	if c.Remote.AgentVersion <= 0 {
		return errors.New("Remote AgentVersion must be > 0")
	}

	// Validation
	if c.Validation.ExpiryLeeway < 0 {
		return errors.New("Validation ExpiryLeeway must be >= 0")
	}

	// Document
	if _, err := document.ParseEncoding(c.Document.Encoding); err != nil {
		return err
	}

	// Executor
	if c.Executor.PoolSize < 0 {
		return errors.New("Executor PoolSize must be >= 0")
	}
	if c.Executor.Nonblocking && c.Executor.PoolSize == 0 {
		return errors.New("Executor Nonblocking requires PoolSize > 0")
	}
	if c.Executor.ReleaseTimeout < 0 {
		return errors.New("Executor ReleaseTimeout must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Audit.EmitTimeout < 0 {
		return errors.New("Audit EmitTimeout must be >= 0")
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull && c.Audit.EmitTimeout == 0 {
		return errors.New("Audit EmitTimeout must be > 0 when DropIfFull is off")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Store
	if strings.TrimSpace(c.Store.RedisPrefix) == "" {
		return errors.New("Store RedisPrefix must not be empty")
	}
	if c.Store.TTL < 0 {
		return errors.New("Store TTL must be >= 0")
	}

	return nil
}
