// Package config holds the surfer's configuration: model access, browser
// launch options, turn behaviour, logging and the optional event log and
// metrics listener. Configuration is read from a YAML file, then overridden by
// environment variables and command-line flags.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete surfer configuration
type Config struct {
	// LLM configures the model provider
	LLM LLMConfig `yaml:"llm" json:"llm"`

	// Browser configures the browser launch
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Surfer configures per-turn behaviour
	Surfer SurferConfig `yaml:"surfer" json:"surfer"`

	// Logging configures the process log
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// EventLog configures the runtime event database
	EventLog EventLogConfig `yaml:"event_log" json:"event_log"`

	// Metrics configures the Prometheus listener
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// LLMConfig defines model provider settings
type LLMConfig struct {
	APIKey  string `yaml:"api_key" json:"api_key"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	Model   string `yaml:"model" json:"model"`

	// SummaryModel is optional; if empty, page summaries use Model
	SummaryModel string `yaml:"summary_model" json:"summary_model"`

	// RequestsPerMinute paces model requests (0 disables pacing)
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`

	// MaxRetries retries rate-limited and server errors
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// BrowserConfig defines browser launch settings
type BrowserConfig struct {
	// Channel is "chromium" or "firefox"
	Channel   string `yaml:"channel" json:"channel"`
	Headless  bool   `yaml:"headless" json:"headless"`
	DataDir   string `yaml:"data_dir" json:"data_dir"`
	StartPage string `yaml:"start_page" json:"start_page"`

	// AllowList restricts navigation to matching URLs (prefix or glob); empty allows all
	AllowList []string `yaml:"allow_list,omitempty" json:"allow_list,omitempty"`

	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
}

// SurferConfig defines per-turn behaviour
type SurferConfig struct {
	// DebugDir receives screenshots each turn; empty uses the working directory
	DebugDir string `yaml:"debug_dir" json:"debug_dir"`

	// DisableDebug turns screenshot capture off entirely
	DisableDebug bool `yaml:"disable_debug" json:"disable_debug"`

	// SettleDelay is the pause after an action before observing the page
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`

	// SummaryTokenLimit caps the page text sent for summarization
	SummaryTokenLimit int `yaml:"summary_token_limit" json:"summary_token_limit"`

	// Narrate prints each browser action to the console
	Narrate bool `yaml:"narrate" json:"narrate"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" json:"level"`
}

// EventLogConfig defines the runtime event database
type EventLogConfig struct {
	// Path to the SQLite database; empty disables event logging
	Path string `yaml:"path" json:"path"`
}

// MetricsConfig defines the metrics listener
type MetricsConfig struct {
	// Addr to serve /metrics on, e.g. ":9090"; empty disables the listener
	Addr string `yaml:"addr" json:"addr"`
}

// Default values
const (
	DefaultModel             = "gpt-4o"
	DefaultChannel           = "chromium"
	DefaultStartPage         = "https://www.bing.com/"
	DefaultViewportWidth     = 1440
	DefaultViewportHeight    = 900
	DefaultBrowserTimeout    = 30 * time.Second
	DefaultSettleDelay       = 2 * time.Second
	DefaultSummaryTokenLimit = 100000
	DefaultLogLevel          = "info"

	// summaryReserve is the room left for the model's summary.
	summaryReserve = 1024
)

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model: DefaultModel,
		},
		Browser: BrowserConfig{
			Channel:        DefaultChannel,
			Headless:       true,
			StartPage:      DefaultStartPage,
			ViewportWidth:  DefaultViewportWidth,
			ViewportHeight: DefaultViewportHeight,
			Timeout:        DefaultBrowserTimeout,
		},
		Surfer: SurferConfig{
			SettleDelay:       DefaultSettleDelay,
			SummaryTokenLimit: DefaultSummaryTokenLimit,
			Narrate:           true,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}

	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute cannot be negative")
	}

	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries cannot be negative")
	}

	if c.Browser.Channel != "chromium" && c.Browser.Channel != "firefox" {
		return fmt.Errorf("invalid browser.channel: %s (must be 'chromium' or 'firefox')", c.Browser.Channel)
	}

	if c.Browser.StartPage == "" {
		return fmt.Errorf("browser.start_page is required")
	}

	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport must be positive, got %dx%d", c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}

	if c.Browser.Timeout < 0 {
		return fmt.Errorf("browser.timeout cannot be negative")
	}

	if c.Surfer.SettleDelay < 0 {
		return fmt.Errorf("surfer.settle_delay cannot be negative")
	}

	if c.Surfer.SummaryTokenLimit <= summaryReserve {
		return fmt.Errorf("surfer.summary_token_limit must exceed %d", summaryReserve)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn or error)", c.Logging.Level)
	}

	return nil
}
