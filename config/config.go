// Package config loads and validates the daemon configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ZaguanLabs/transbasket/cache"
)

// Config is the complete daemon configuration.
type Config struct {
	Listen string       `mapstructure:"listen"`
	Port   int          `mapstructure:"port"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Log    LogConfig    `mapstructure:"log"`
}

// OpenAIConfig configures the upstream translation endpoint.
type OpenAIConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	APIKey            string  `mapstructure:"api_key"`
	TimeoutSeconds    int     `mapstructure:"timeout"`
	MaxRetries        int     `mapstructure:"max_retries"`
	Temperature       float32 `mapstructure:"temperature"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"` // 0 disables rate limiting
	PromptPrefix      string  `mapstructure:"prompt_prefix"`
	PromptPrefixFile  string  `mapstructure:"prompt_prefix_file"`
}

// CacheConfig configures the translation cache.
type CacheConfig struct {
	Backend        string `mapstructure:"backend"`
	Path           string `mapstructure:"path"`
	Threshold      int    `mapstructure:"threshold"`
	CleanupEnabled bool   `mapstructure:"cleanup_enabled"`
	CleanupDays    int    `mapstructure:"cleanup_days"`
	JournalMode    string `mapstructure:"journal_mode"`
	Synchronous    string `mapstructure:"synchronous"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the built-in defaults: a text cache in the working
// directory, a five-confirmation threshold and 30-day cleanup.
func Default() *Config {
	return &Config{
		Listen: "0.0.0.0",
		Port:   8889,
		OpenAI: OpenAIConfig{
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
			MaxRetries:     3,
			Temperature:    0.3,
			PromptPrefix:   "Translate the following text",
		},
		Cache: CacheConfig{
			Backend:        string(cache.KindText),
			Path:           "trans_dictionary.jsonl",
			Threshold:      5,
			CleanupEnabled: true,
			CleanupDays:    30,
			JournalMode:    "WAL",
			Synchronous:    "NORMAL",
		},
		Log: LogConfig{Level: "info"},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TRANSBASKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("listen", def.Listen)
	v.SetDefault("port", def.Port)
	v.SetDefault("openai.model", def.OpenAI.Model)
	v.SetDefault("openai.timeout", def.OpenAI.TimeoutSeconds)
	v.SetDefault("openai.max_retries", def.OpenAI.MaxRetries)
	v.SetDefault("openai.temperature", def.OpenAI.Temperature)
	v.SetDefault("openai.requests_per_minute", def.OpenAI.RequestsPerMinute)
	v.SetDefault("openai.prompt_prefix", def.OpenAI.PromptPrefix)
	v.SetDefault("cache.backend", def.Cache.Backend)
	v.SetDefault("cache.path", def.Cache.Path)
	v.SetDefault("cache.threshold", def.Cache.Threshold)
	v.SetDefault("cache.cleanup_enabled", def.Cache.CleanupEnabled)
	v.SetDefault("cache.cleanup_days", def.Cache.CleanupDays)
	v.SetDefault("cache.journal_mode", def.Cache.JournalMode)
	v.SetDefault("cache.synchronous", def.Cache.Synchronous)
	v.SetDefault("log.level", def.Log.Level)

	return v
}

// Load reads the YAML configuration at path. An empty path searches the
// working directory and /etc/transbasket for transbasket.yaml; a missing
// file there just yields the defaults with env overrides.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("transbasket")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/transbasket")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.resolvePromptPrefix(v.ConfigFileUsed()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePromptPrefix loads the prompt prefix from a file when one is
// configured. Relative paths resolve against the config file directory.
func (c *Config) resolvePromptPrefix(configFile string) error {
	if c.OpenAI.PromptPrefixFile == "" {
		return nil
	}

	path := c.OpenAI.PromptPrefixFile
	if !filepath.IsAbs(path) && configFile != "" {
		path = filepath.Join(filepath.Dir(configFile), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading prompt prefix file: %w", err)
	}

	prefix := strings.TrimSpace(string(data))
	if prefix == "" {
		return fmt.Errorf("prompt prefix file %s is empty", path)
	}

	c.OpenAI.PromptPrefix = prefix
	return nil
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.OpenAI.BaseURL == "" {
		return fmt.Errorf("openai.base_url is required")
	}
	if !strings.HasPrefix(c.OpenAI.BaseURL, "http://") && !strings.HasPrefix(c.OpenAI.BaseURL, "https://") {
		return fmt.Errorf("openai.base_url must start with http:// or https://")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if c.OpenAI.TimeoutSeconds < 1 {
		return fmt.Errorf("openai.timeout must be at least 1 second")
	}
	if c.OpenAI.PromptPrefix == "" {
		return fmt.Errorf("openai.prompt_prefix is required")
	}

	if _, err := cache.ParseKind(c.Cache.Backend); err != nil {
		return err
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required")
	}
	if c.Cache.Threshold < 1 {
		return fmt.Errorf("cache.threshold must be at least 1")
	}
	if c.Cache.CleanupEnabled && c.Cache.CleanupDays < 1 {
		return fmt.Errorf("cache.cleanup_days must be at least 1")
	}

	return nil
}
