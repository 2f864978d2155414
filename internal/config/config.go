package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration structure.
// It holds the browser, picker and logging settings.
type Config struct {
	Browser struct {
		DefaultDir         string `yaml:"default_dir"`          // Directory opened when none is given
		ShowHidden         bool   `yaml:"show_hidden"`          // Include dot files in listings
		SniffContent       bool   `yaml:"sniff_content"`        // Read file headers to recognize images
		ThumbnailCacheSize int    `yaml:"thumbnail_cache_size"` // Thumbnails kept in memory
		ThumbnailSize      int    `yaml:"thumbnail_size"`       // Longest thumbnail edge in pixels
		Watch              bool   `yaml:"watch"`                // Refresh views on filesystem changes
	} `yaml:"browser"`
	Picker struct {
		Classifier string `yaml:"classifier"` // Classifier properties file
		Timeout    int    `yaml:"timeout"`    // Per-command timeout in seconds, 0 = none
		Lock       bool   `yaml:"lock"`       // Serialize runs sharing a run directory
	} `yaml:"picker"`
	Log struct {
		Level string `yaml:"level"` // debug, info, warn or error
		JSON  bool   `yaml:"json"`  // Emit JSON lines
		File  string `yaml:"file"`  // Optional log file
	} `yaml:"log"`
}

// DefaultPath returns ~/.config/xpick/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "xpick", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Decoding on top of the defaults keeps every key the file leaves out.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Browser.DefaultDir = "."
	cfg.Browser.ShowHidden = false
	cfg.Browser.SniffContent = true
	cfg.Browser.ThumbnailCacheSize = 256
	cfg.Browser.ThumbnailSize = 64
	cfg.Browser.Watch = true

	cfg.Picker.Classifier = ""
	cfg.Picker.Timeout = 0
	cfg.Picker.Lock = true

	cfg.Log.Level = "info"
	cfg.Log.JSON = false

	return cfg
}

// New returns a configuration populated with defaults.
func New() *Config {
	return defaultConfig()
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	if c.Browser.ThumbnailCacheSize < 1 {
		return fmt.Errorf("thumbnail_cache_size must be >= 1")
	}
	if c.Browser.ThumbnailSize < 8 {
		return fmt.Errorf("thumbnail_size must be >= 8 pixels")
	}
	if c.Picker.Timeout < 0 {
		return fmt.Errorf("picker timeout must be >= 0 seconds")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Picker.Classifier != "" {
		if _, err := os.Stat(c.Picker.Classifier); err != nil {
			return fmt.Errorf("error accessing classifier file: %w", err)
		}
	}

	return nil
}

// CommandTimeout returns the picker timeout as a duration, 0 meaning none.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Picker.Timeout) * time.Second
}

// StartDir resolves the directory a browser opens in: the explicit argument
// when given, otherwise the configured default.
func (c *Config) StartDir(arg string) (string, error) {
	dir := arg
	if dir == "" {
		dir = c.Browser.DefaultDir
	}
	if dir == "" || dir == "." {
		return os.Getwd()
	}
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}
