package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete foodlens configuration.
// Defaults come from DefaultConfig; viper overlays file, env and flags.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Registry     RegistryConfig     `yaml:"registry" mapstructure:"registry"`
}

// HTTPConfig controls product database requests
type HTTPConfig struct {
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls product lookup caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend   string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered, redis
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisURL  string        `yaml:"redis_url,omitempty" mapstructure:"redis_url"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig controls per-host request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls report rendering and logging
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	LogFormat     string `yaml:"log_format" mapstructure:"log_format"` // text, json
}

// LLMConfig controls the optional assistant summary
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "", openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	Strict    bool   `yaml:"strict" mapstructure:"strict"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxIngredients  int           `yaml:"max_ingredients" mapstructure:"max_ingredients"`
}

// RegistryConfig points at an optional replacement ingredient registry
type RegistryConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"` // YAML file; empty uses the built-in catalog
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			BaseURL:       "https://world.openfoodfacts.org",
			Timeout:       30 * time.Second,
			UserAgent:     "foodlens/0.1 (+https://github.com/ppiankov/foodlens)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "layered",
			Dir:       defaultCacheDir(),
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			LogFormat:     "text",
		},
		LLM: LLMConfig{
			Timeout:   30,
			Strict:    true,
			MaxTokens: 800,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			MaxIngredients:  500,
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".foodlens-cache"
	}
	return filepath.Join(dir, "foodlens")
}
