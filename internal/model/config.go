package model

import "time"

// Config holds the complete claimrank configuration
type Config struct {
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Augment  AugmentConfig  `yaml:"augment" mapstructure:"augment"`
	Evaluate EvaluateConfig `yaml:"evaluate" mapstructure:"evaluate"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ScoringConfig configures the propagation scorer
type ScoringConfig struct {
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth"`
}

// AugmentConfig configures live evidence augmentation
type AugmentConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	Workers           int           `yaml:"workers" mapstructure:"workers"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffBase       time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`
	CallTimeout       time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// EvaluateConfig configures the decision evaluator
type EvaluateConfig struct {
	OptionWorkers int           `yaml:"option_workers" mapstructure:"option_workers"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LLMConfig configures the claim-extraction provider
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, heuristic
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"` // Never written to config files
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig configures caching of extraction results
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// FetchConfig configures fetching of URL-backed documents
type FetchConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			MaxDepth: 2,
		},
		Augment: AugmentConfig{
			Enabled:           true,
			Workers:           4,
			MaxRetries:        3,
			BackoffBase:       time.Second,
			CallTimeout:       30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Evaluate: EvaluateConfig{
			OptionWorkers: 1,
			Timeout:       5 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:  "heuristic", // Offline by default
			Timeout:   30,
			MaxTokens: 2000,
		},
		Cache: CacheConfig{
			Enabled:   false,
			MemoryTTL: 15 * time.Minute,
			DiskDir:   ".claimrank-cache",
			DiskTTL:   24 * time.Hour,
		},
		Fetch: FetchConfig{
			Timeout:           20 * time.Second,
			UserAgent:         "claimrank/0.1 (+https://github.com/ppiankov/claimrank)",
			MaxBodyBytes:      2_000_000,
			RespectRobots:     true,
			RequestsPerSecond: 2,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}
