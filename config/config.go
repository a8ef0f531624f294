// Package config provides configuration loading and management for applyflow.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete applyflow configuration
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	NATS    NATSConfig    `yaml:"nats"`
	Model   ModelConfig   `yaml:"model"`
	Browser BrowserConfig `yaml:"browser"`
	Apply   ApplyConfig   `yaml:"apply"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	// Addr is the listen address for the HTTP API (default: ":8080")
	Addr string `yaml:"addr"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded bool `yaml:"embedded"`
}

// ModelConfig configures the decision-service model endpoint
type ModelConfig struct {
	// Provider is the LLM provider (anthropic, openai, ollama)
	Provider string `yaml:"provider"`
	// Name is the model identifier sent to the provider
	Name string `yaml:"name"`
	// Endpoint is the API endpoint URL (empty = provider default)
	Endpoint string `yaml:"endpoint"`
	// Temperature controls randomness for decisions (0.0-1.0, default: 0.1)
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for model responses
	Timeout time.Duration `yaml:"timeout"`
}

// BrowserConfig configures the browser automation session
type BrowserConfig struct {
	// Headless runs the browser without a visible window
	Headless bool `yaml:"headless"`
	// UserAgent overrides the browser user agent string
	UserAgent string `yaml:"user_agent"`
	// NavTimeout bounds page navigation
	NavTimeout time.Duration `yaml:"nav_timeout"`
	// FillSettle is the pause after a free-text fill so client-side
	// validation can react
	FillSettle time.Duration `yaml:"fill_settle"`
	// ClickSettle is the pause after clicking submit/next controls
	ClickSettle time.Duration `yaml:"click_settle"`
	// ViewportWidth and ViewportHeight size the browser window
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`
}

// ApplyConfig configures the step orchestrator
type ApplyConfig struct {
	// MaxSteps bounds the number of inspect/decide/act cycles per run
	MaxSteps int `yaml:"max_steps"`
	// MaxControls caps candidate controls inspected per cycle
	MaxControls int `yaml:"max_controls"`
	// MaxActed caps controls acted on per cycle
	MaxActed int `yaml:"max_acted"`
	// ResumeExcerpt caps the résumé characters sent per decision
	ResumeExcerpt int `yaml:"resume_excerpt"`
	// SuccessURLKeywords mark a changed address as a success page
	SuccessURLKeywords []string `yaml:"success_url_keywords"`
	// SuccessPhrases mark rendered page text as a success page
	SuccessPhrases []string `yaml:"success_phrases"`
	// SubmitLabels are button texts treated as form submission
	SubmitLabels []string `yaml:"submit_labels"`
	// NextLabels are button texts treated as multi-page navigation
	NextLabels []string `yaml:"next_labels"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
		Model: ModelConfig{
			Provider:    "anthropic",
			Name:        "claude-haiku-3-5-20241022",
			Endpoint:    "",
			Temperature: 0.1,
			Timeout:     2 * time.Minute,
		},
		Browser: BrowserConfig{
			Headless:       true,
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
			NavTimeout:     30 * time.Second,
			FillSettle:     300 * time.Millisecond,
			ClickSettle:    3 * time.Second,
			ViewportWidth:  1280,
			ViewportHeight: 800,
		},
		Apply: ApplyConfig{
			MaxSteps:      10,
			MaxControls:   30,
			MaxActed:      20,
			ResumeExcerpt: 1500,
			SuccessURLKeywords: []string{
				"success", "thank", "confirm", "submitted",
			},
			SuccessPhrases: []string{
				"application submitted",
				"thank you for applying",
				"we've received your application",
				"application received",
				"successfully applied",
				"application complete",
			},
			SubmitLabels: []string{"Submit", "Apply", "Send Application"},
			NextLabels:   []string{"Next", "Continue"},
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.Model.Provider == "" {
		return fmt.Errorf("model.provider is required")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model.name is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be between 0 and 1")
	}
	if c.Apply.MaxSteps < 1 {
		return fmt.Errorf("apply.max_steps must be at least 1")
	}
	if c.Apply.MaxActed > c.Apply.MaxControls {
		return fmt.Errorf("apply.max_acted cannot exceed apply.max_controls")
	}
	if len(c.Apply.SuccessURLKeywords) == 0 && len(c.Apply.SuccessPhrases) == 0 {
		return fmt.Errorf("apply success detection needs at least one keyword or phrase")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// loadOverlay parses a config file into a zero-value Config so that
// Merge only sees the fields the file actually sets. Unmarshalling an
// overlay onto defaults would make every field look explicitly set and
// let a sparse later layer reset earlier layers back to defaults.
func loadOverlay(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// HTTP
	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}

	// Model
	if other.Model.Provider != "" {
		c.Model.Provider = other.Model.Provider
	}
	if other.Model.Name != "" {
		c.Model.Name = other.Model.Name
	}
	if other.Model.Endpoint != "" {
		c.Model.Endpoint = other.Model.Endpoint
	}
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}

	// Browser
	if other.Browser.UserAgent != "" {
		c.Browser.UserAgent = other.Browser.UserAgent
	}
	if other.Browser.NavTimeout != 0 {
		c.Browser.NavTimeout = other.Browser.NavTimeout
	}
	if other.Browser.FillSettle != 0 {
		c.Browser.FillSettle = other.Browser.FillSettle
	}
	if other.Browser.ClickSettle != 0 {
		c.Browser.ClickSettle = other.Browser.ClickSettle
	}
	if other.Browser.ViewportWidth != 0 {
		c.Browser.ViewportWidth = other.Browser.ViewportWidth
	}
	if other.Browser.ViewportHeight != 0 {
		c.Browser.ViewportHeight = other.Browser.ViewportHeight
	}

	// Apply
	if other.Apply.MaxSteps != 0 {
		c.Apply.MaxSteps = other.Apply.MaxSteps
	}
	if other.Apply.MaxControls != 0 {
		c.Apply.MaxControls = other.Apply.MaxControls
	}
	if other.Apply.MaxActed != 0 {
		c.Apply.MaxActed = other.Apply.MaxActed
	}
	if other.Apply.ResumeExcerpt != 0 {
		c.Apply.ResumeExcerpt = other.Apply.ResumeExcerpt
	}
	if len(other.Apply.SuccessURLKeywords) > 0 {
		c.Apply.SuccessURLKeywords = other.Apply.SuccessURLKeywords
	}
	if len(other.Apply.SuccessPhrases) > 0 {
		c.Apply.SuccessPhrases = other.Apply.SuccessPhrases
	}
	if len(other.Apply.SubmitLabels) > 0 {
		c.Apply.SubmitLabels = other.Apply.SubmitLabels
	}
	if len(other.Apply.NextLabels) > 0 {
		c.Apply.NextLabels = other.Apply.NextLabels
	}
}
