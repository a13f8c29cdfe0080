// Package config handles AiChan configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/aichan/config.yaml, /etc/aichan/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "aichan", "config.yaml"))
	}

	paths = append(paths, "/etc/aichan/config.yaml")
	return paths
}

// ErrNoConfig is returned by FindConfig when no file exists on the
// default search path. Callers may fall back to [Default].
var ErrNoConfig = errors.New("no config file found")

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w (searched: %v)", ErrNoConfig, DefaultSearchPaths())
}

// Config holds all AiChan configuration.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Search    SearchConfig    `yaml:"search"`
	Log       LogConfig       `yaml:"log"`
}

// ListenConfig defines the HTTP server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// AnthropicConfig defines completion provider settings.
type AnthropicConfig struct {
	// APIKey seeds the credential store. A key saved through the
	// settings endpoint or present in EnvFile takes precedence.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	// BaseURL overrides the API root, e.g. for a proxy. Empty means the
	// public endpoint.
	BaseURL string `yaml:"base_url"`
	// EnvFile is the dotenv file the credential endpoints write to.
	EnvFile string `yaml:"env_file"`
}

// SearchConfig selects and configures the web search backend.
type SearchConfig struct {
	Provider string        `yaml:"provider"` // searxng or brave
	SearXNG  SearXNGConfig `yaml:"searxng"`
	Brave    BraveConfig   `yaml:"brave"`
}

// SearXNGConfig holds configuration for a SearXNG instance.
type SearXNGConfig struct {
	URL string `yaml:"url"`
	// ExcludeEngines drops results attributed to exactly one of these
	// engines and nothing else.
	ExcludeEngines []string `yaml:"exclude_engines"`
}

// Configured reports whether a SearXNG URL is set.
func (c SearXNGConfig) Configured() bool {
	return c.URL != ""
}

// BraveConfig holds configuration for the Brave Search API.
type BraveConfig struct {
	APIKey string `yaml:"api_key"`
}

// Configured reports whether a Brave API key is set.
func (c BraveConfig) Configured() bool {
	return c.APIKey != ""
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string        `yaml:"level"`
	Format string        `yaml:"format"` // text or json
	File   LogFileConfig `yaml:"file"`
}

// LogFileConfig enables a rotated log file alongside stdout.
type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Enabled reports whether file logging is configured.
func (c LogFileConfig) Enabled() bool {
	return c.Path != ""
}

// Default returns a configuration that runs against a local SearXNG
// instance with the key read from .env.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 3000},
		Anthropic: AnthropicConfig{
			Model:   "claude-3-5-sonnet-latest",
			EnvFile: ".env",
		},
		Search: SearchConfig{
			Provider: "searxng",
			SearXNG: SearXNGConfig{
				URL:            "http://localhost:8080",
				ExcludeEngines: []string{"qwant"},
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File: LogFileConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
	}
}

// LoadEnv loads variables from a dotenv file into the process
// environment without overriding ones already set. A missing file is
// not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from a YAML file. Environment variables in
// the file body are expanded before parsing, and unset fields keep
// their [Default] values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

var searchProviders = []string{"searxng", "brave"}

// Validate checks the configuration for values that would fail later
// at startup.
func (c *Config) Validate() error {
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range", c.Listen.Port)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q (valid: text, json)", c.Log.Format)
	}
	if !slices.Contains(searchProviders, c.Search.Provider) {
		return fmt.Errorf("search.provider %q (valid: %v)", c.Search.Provider, searchProviders)
	}
	if c.Search.Provider == "searxng" && !c.Search.SearXNG.Configured() {
		return errors.New("search.searxng.url is required when provider is searxng")
	}
	if c.Search.Provider == "brave" && !c.Search.Brave.Configured() {
		return errors.New("search.brave.api_key is required when provider is brave")
	}
	if c.Anthropic.Model == "" {
		return errors.New("anthropic.model is required")
	}
	return nil
}
