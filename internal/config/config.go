// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Capture() CaptureConfig
	Profiles() ProfilesConfig
	Server() ServerConfig
	Report() ReportConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserExecPath(string)
	SetBrowserConcurrency(int)

	// Profiles Setters
	SetProfilesPath(string)
	SetProfilesDefault(string)
	SetProfilesWatch(bool)

	// Server Setters
	SetServerAddr(string)

	// Report Setters
	SetReportFormat(string)
	SetReportOutput(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	CaptureCfg  CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	ProfilesCfg ProfilesConfig `mapstructure:"profiles" yaml:"profiles"`
	ServerCfg   ServerConfig   `mapstructure:"server" yaml:"server"`
	ReportCfg   ReportConfig   `mapstructure:"report" yaml:"report"`
}

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) Capture() CaptureConfig   { return c.CaptureCfg }
func (c *Config) Profiles() ProfilesConfig { return c.ProfilesCfg }
func (c *Config) Server() ServerConfig     { return c.ServerCfg }
func (c *Config) Report() ReportConfig     { return c.ReportCfg }

// Browser Setters
func (c *Config) SetBrowserHeadless(b bool)      { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserExecPath(p string)    { c.BrowserCfg.ExecPath = p }
func (c *Config) SetBrowserConcurrency(n int)    { c.BrowserCfg.Concurrency = n }
func (c *Config) SetProfilesPath(p string)       { c.ProfilesCfg.Path = p }
func (c *Config) SetProfilesDefault(name string) { c.ProfilesCfg.Default = name }
func (c *Config) SetProfilesWatch(b bool)        { c.ProfilesCfg.Watch = b }
func (c *Config) SetServerAddr(addr string)      { c.ServerCfg.Addr = addr }
func (c *Config) SetReportFormat(f string)       { c.ReportCfg.Format = f }
func (c *Config) SetReportOutput(o string)       { c.ReportCfg.Output = o }

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

// BrowserConfig holds settings for the headless browser used by capture.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	DisableGPU        bool           `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	Concurrency       int            `mapstructure:"concurrency" yaml:"concurrency"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
}

// ViewportSize returns the configured width and height, falling back to 1920x1080.
func (b BrowserConfig) ViewportSize() (int, int) {
	w, h := b.Viewport["width"], b.Viewport["height"]
	if w <= 0 {
		w = 1920
	}
	if h <= 0 {
		h = 1080
	}
	return w, h
}

// CaptureConfig tunes snapshot collection.
type CaptureConfig struct {
	// RateLimit is the maximum number of page navigations per second across a batch.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	// Burst is the number of navigations allowed before throttling starts.
	Burst int `mapstructure:"burst" yaml:"burst"`
	// SettleTime is how long to wait after load before reading styles.
	SettleTime time.Duration `mapstructure:"settle_time" yaml:"settle_time"`
	// Properties overrides the computed-style keys collected per element. Empty means
	// every property known to the schema.
	Properties []string `mapstructure:"properties" yaml:"properties"`
}

// ProfilesConfig locates the expected-style profile resource.
type ProfilesConfig struct {
	Path          string        `mapstructure:"path" yaml:"path"`
	Default       string        `mapstructure:"default" yaml:"default"`
	Watch         bool          `mapstructure:"watch" yaml:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce" yaml:"watch_debounce"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// ReportConfig selects the default output format and destination.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "stylelens")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.concurrency", 4)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.viewport", map[string]int{"width": 1920, "height": 1080})

	// -- Capture --
	v.SetDefault("capture.rate_limit", 2.0)
	v.SetDefault("capture.burst", 1)
	v.SetDefault("capture.settle_time", "500ms")

	// -- Profiles --
	v.SetDefault("profiles.path", "expectedStyles.json")
	v.SetDefault("profiles.default", "")
	v.SetDefault("profiles.watch", false)
	v.SetDefault("profiles.watch_debounce", "100ms")

	// -- Server --
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 8<<20)

	// -- Report --
	v.SetDefault("report.format", "text")
	v.SetDefault("report.output", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

var validReportFormats = map[string]bool{
	"text": true, "json": true, "sarif": true, "junit": true, "html": true,
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.BrowserCfg.Concurrency <= 0 {
		return fmt.Errorf("browser.concurrency must be a positive integer")
	}
	if c.BrowserCfg.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if err := c.CaptureCfg.Validate(); err != nil {
		return fmt.Errorf("capture configuration invalid: %w", err)
	}
	if err := c.ServerCfg.Validate(); err != nil {
		return fmt.Errorf("server configuration invalid: %w", err)
	}
	if f := strings.ToLower(c.ReportCfg.Format); f != "" && !validReportFormats[f] {
		return fmt.Errorf("report.format %q is not one of text, json, sarif, junit, html", c.ReportCfg.Format)
	}
	return nil
}

// Validate checks the capture settings.
func (c *CaptureConfig) Validate() error {
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be greater than 0")
	}
	if c.Burst <= 0 {
		return fmt.Errorf("burst must be a positive integer")
	}
	if c.SettleTime < 0 {
		return fmt.Errorf("settle_time must not be negative")
	}
	return nil
}

// Validate checks the server settings.
func (s *ServerConfig) Validate() error {
	if s.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be a positive duration")
	}
	if s.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be a positive integer")
	}
	return nil
}
