// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Storage   StorageConfig   `mapstructure:"storage"`
	DB        DBConfig        `mapstructure:"db"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// BrowserConfig configures the shared headless browser.
type BrowserConfig struct {
	Headless        bool   `mapstructure:"headless"`
	UserAgent       string `mapstructure:"user_agent"`
	ViewportWidth   int    `mapstructure:"viewport_width"`
	ViewportHeight  int    `mapstructure:"viewport_height"`
	SettleTimeoutMs int    `mapstructure:"settle_timeout_ms"`
}

// EngineConfig governs session execution.
type EngineConfig struct {
	MaxPagesDefault          int     `mapstructure:"max_pages_default"`
	NavTimeoutSeconds        int     `mapstructure:"nav_timeout_seconds"`
	NavTimeoutCeilingSeconds int     `mapstructure:"nav_timeout_ceiling_seconds"`
	ExtractBudgetSeconds     int     `mapstructure:"extract_budget_seconds"`
	SessionBudgetSeconds     int     `mapstructure:"session_budget_seconds"`
	DomainQPS                float64 `mapstructure:"domain_qps"`
	MaxConcurrentSessions    int     `mapstructure:"max_concurrent_sessions"`
	ScreenshotsEnabled       bool    `mapstructure:"screenshots_enabled"`
	HTMLSnapshotEnabled      bool    `mapstructure:"html_snapshot_enabled"`
	DefaultProductSelectors  string  `mapstructure:"default_product_selectors"`
}

// SchedulerConfig controls the cron sweep loop.
type SchedulerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds"`
}

// StorageConfig selects the artifact blob backend.
type StorageConfig struct {
	// Backend is one of "memory", "local", or "gcs".
	Backend          string `mapstructure:"backend"`
	LocalDir         string `mapstructure:"local_dir"`
	GCSBucket        string `mapstructure:"gcs_bucket"`
	ScreenshotPrefix string `mapstructure:"screenshot_prefix"`
	SnapshotPrefix   string `mapstructure:"snapshot_prefix"`
}

// DBConfig selects the store backend for scouts and sessions.
type DBConfig struct {
	// Backend is one of "memory" or "postgres".
	Backend  string `mapstructure:"backend"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// PubSubConfig holds metadata for session-event notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LANDINGSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.settle_timeout_ms", 3000)
	v.SetDefault("engine.max_pages_default", 100)
	v.SetDefault("engine.nav_timeout_seconds", 30)
	v.SetDefault("engine.nav_timeout_ceiling_seconds", 60)
	v.SetDefault("engine.extract_budget_seconds", 15)
	v.SetDefault("engine.session_budget_seconds", 0)
	v.SetDefault("engine.domain_qps", 1.0)
	v.SetDefault("engine.max_concurrent_sessions", 4)
	v.SetDefault("engine.screenshots_enabled", true)
	v.SetDefault("engine.html_snapshot_enabled", false)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval_seconds", 30)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", "artifacts")
	v.SetDefault("storage.screenshot_prefix", "screenshots")
	v.SetDefault("storage.snapshot_prefix", "snapshots")
	v.SetDefault("db.backend", "memory")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Engine.MaxPagesDefault <= 0 {
		return fmt.Errorf("engine.max_pages_default must be > 0")
	}
	if c.Engine.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("engine.nav_timeout_seconds must be > 0")
	}
	if c.Engine.MaxConcurrentSessions < 0 {
		return fmt.Errorf("engine.max_concurrent_sessions must be >= 0")
	}
	if c.Scheduler.Enabled && c.Scheduler.IntervalSeconds <= 0 {
		return fmt.Errorf("scheduler.interval_seconds must be > 0 when the scheduler is enabled")
	}
	switch c.Storage.Backend {
	case "memory":
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir must be set for the local backend")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	switch c.DB.Backend {
	case "memory":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown db.backend %q", c.DB.Backend)
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	return nil
}

// NavTimeout returns the per-page navigation budget.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Engine.NavTimeoutSeconds) * time.Second
}

// SessionBudget returns the whole-session budget; zero means unlimited.
func (c Config) SessionBudget() time.Duration {
	return time.Duration(c.Engine.SessionBudgetSeconds) * time.Second
}
