// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Site      SiteConfig      `mapstructure:"site" yaml:"site"`
	Scrape    ScrapeConfig    `mapstructure:"scrape" yaml:"scrape"`
	Humanoid  HumanoidConfig  `mapstructure:"humanoid" yaml:"humanoid"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how the headless browser process is launched.
type BrowserConfig struct {
	Headless     bool     `mapstructure:"headless" yaml:"headless"`
	ExecPath     string   `mapstructure:"exec_path" yaml:"exec_path"`
	Args         []string `mapstructure:"args" yaml:"args"`
	UserAgent    string   `mapstructure:"user_agent" yaml:"user_agent"`
	Locale       string   `mapstructure:"locale" yaml:"locale"`
	WindowWidth  int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int      `mapstructure:"window_height" yaml:"window_height"`

	// MaxSessions caps how many browser instances may be open at once.
	MaxSessions int `mapstructure:"max_sessions" yaml:"max_sessions"`
}

// SiteConfig describes the listing site being scraped.
type SiteConfig struct {
	BaseURL           string `mapstructure:"base_url" yaml:"base_url"`
	SearchPlaceholder string `mapstructure:"search_placeholder" yaml:"search_placeholder"`
	FiltersLabel      string `mapstructure:"filters_label" yaml:"filters_label"`
}

// ScrapeConfig holds the retry policy and the per-operation timeouts of a
// scrape run.
type ScrapeConfig struct {
	MaxAttempts        int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryDelay         time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	AttemptTimeout     time.Duration `mapstructure:"attempt_timeout" yaml:"attempt_timeout"`
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	StrategyTimeout    time.Duration `mapstructure:"strategy_timeout" yaml:"strategy_timeout"`
	FieldTimeout       time.Duration `mapstructure:"field_timeout" yaml:"field_timeout"`
	CardTimeout        time.Duration `mapstructure:"card_timeout" yaml:"card_timeout"`
	NetworkIdleTimeout time.Duration `mapstructure:"network_idle_timeout" yaml:"network_idle_timeout"`
	NetworkQuietPeriod time.Duration `mapstructure:"network_quiet_period" yaml:"network_quiet_period"`
	PostSearchWait     time.Duration `mapstructure:"post_search_wait" yaml:"post_search_wait"`
	PostFilterWait     time.Duration `mapstructure:"post_filter_wait" yaml:"post_filter_wait"`
	TypeSettle         time.Duration `mapstructure:"type_settle" yaml:"type_settle"`
	FillSettle         time.Duration `mapstructure:"fill_settle" yaml:"fill_settle"`
	DiagnosticsDir     string        `mapstructure:"diagnostics_dir" yaml:"diagnostics_dir"`
	DiagnosticsEnabled bool          `mapstructure:"diagnostics_enabled" yaml:"diagnostics_enabled"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// RateLimit is the sustained number of scrape requests per second.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// TelemetryConfig enables trace export. An empty endpoint keeps the no-op
// tracer provider.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure" yaml:"insecure"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Load unmarshals the viper state into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "estate-scout")
	v.SetDefault("logger.log_file", "estate-scout.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("browser.locale", "es-CO")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.max_sessions", 2)

	// -- Site --
	v.SetDefault("site.base_url", "https://www.engelvoelkers.com/co/es")
	v.SetDefault("site.search_placeholder", "Ciudad, distrito, código postal o ID de E&V")
	v.SetDefault("site.filters_label", "Filtros")

	// -- Scrape --
	v.SetDefault("scrape.max_attempts", 3)
	v.SetDefault("scrape.retry_delay", "5s")
	v.SetDefault("scrape.attempt_timeout", "5m")
	v.SetDefault("scrape.navigation_timeout", "60s")
	v.SetDefault("scrape.strategy_timeout", "10s")
	v.SetDefault("scrape.field_timeout", "5s")
	v.SetDefault("scrape.card_timeout", "10s")
	v.SetDefault("scrape.network_idle_timeout", "15s")
	v.SetDefault("scrape.network_quiet_period", "500ms")
	v.SetDefault("scrape.post_search_wait", "2s")
	v.SetDefault("scrape.post_filter_wait", "2s")
	v.SetDefault("scrape.type_settle", "500ms")
	v.SetDefault("scrape.fill_settle", "300ms")
	v.SetDefault("scrape.diagnostics_dir", "diagnostics")
	v.SetDefault("scrape.diagnostics_enabled", true)

	// -- Humanoid --
	setHumanoidDefaults(v)

	// -- Server --
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.rate_limit", 1.0)
	v.SetDefault("server.rate_burst", 2)

	// -- Telemetry --
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", true)
}

// Validate checks the configuration for values the scraper cannot run with.
func (c *Config) Validate() error {
	if c.Site.BaseURL == "" {
		return errors.New("site.base_url is a required configuration field")
	}
	if c.Browser.MaxSessions <= 0 {
		return fmt.Errorf("browser.max_sessions must be a positive integer")
	}
	if err := c.Scrape.Validate(); err != nil {
		return fmt.Errorf("scrape configuration invalid: %w", err)
	}
	if err := c.Humanoid.Validate(); err != nil {
		return fmt.Errorf("humanoid configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the scrape configuration.
func (s *ScrapeConfig) Validate() error {
	if s.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if s.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative")
	}
	timeouts := map[string]time.Duration{
		"attempt_timeout":      s.AttemptTimeout,
		"navigation_timeout":   s.NavigationTimeout,
		"strategy_timeout":     s.StrategyTimeout,
		"field_timeout":        s.FieldTimeout,
		"card_timeout":         s.CardTimeout,
		"network_idle_timeout": s.NetworkIdleTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
