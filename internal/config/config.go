package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model. It captures upstream
// credentials, retry tuning, window sizes, evaluator settings and cache
// policy. Core packages receive this value through constructors and
// never read the environment themselves.
type Config struct {
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Windows   WindowsConfig   `yaml:"windows"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
	// MetricsAddr enables the /metrics listener when non-empty, e.g. ":9090".
	MetricsAddr string `yaml:"metricsAddr"`
}

// RetryConfig tunes one retry policy. The collector and the evaluator
// carry separate instances because their backoff profiles differ.
type RetryConfig struct {
	MaxAttempts   int     `yaml:"maxAttempts"`
	BaseDelayMs   int     `yaml:"baseDelayMs"`
	BackoffFactor float64 `yaml:"backoffFactor"`
	MaxDelayMs    int     `yaml:"maxDelayMs"`
}

type UpstreamConfig struct {
	BaseURL string `yaml:"baseURL"`
	// Bearer token for the content-listing API. If empty, read from env
	// CONTENT_API_KEY.
	APIKey         string      `yaml:"apiKey"`
	TimeoutSeconds int         `yaml:"timeoutSeconds"`
	PageSize       int         `yaml:"pageSize"`
	MaxPages       int         `yaml:"maxPages"`
	PageDelayMs    int         `yaml:"pageDelayMs"`
	RPS            float64     `yaml:"rps"`
	Burst          int         `yaml:"burst"`
	Retry          RetryConfig `yaml:"retry"`
}

type EvaluatorConfig struct {
	BaseURL string `yaml:"baseURL"`
	// API key for the content-evaluation model. If empty, read from env
	// EVAL_API_KEY.
	APIKey         string      `yaml:"apiKey"`
	Model          string      `yaml:"model"`
	TimeoutSeconds int         `yaml:"timeoutSeconds"`
	Concurrency    int         `yaml:"concurrency"`
	PaceDelayMs    int         `yaml:"paceDelayMs"`
	InlineLimitMB  int         `yaml:"inlineLimitMB"`
	Retry          RetryConfig `yaml:"retry"`
}

type WindowsConfig struct {
	// QualityWindowDays bounds the cadence window (account dimension).
	QualityWindowDays int `yaml:"qualityWindowDays"`
	// MaxRecentItems caps the engagement/quality window.
	MaxRecentItems int `yaml:"maxRecentItems"`
	// Keyword filters the recent window by substring match on the
	// description. Empty disables filtering and AI evaluation.
	Keyword string `yaml:"keyword"`
}

type ScoringConfig struct {
	// EngagementWeight and QualityWeight combine the two per-item
	// dimensions and must sum to 1.
	EngagementWeight float64 `yaml:"engagementWeight"`
	QualityWeight    float64 `yaml:"qualityWeight"`
	// DefaultContentQuality substitutes the content-quality base when
	// every item is excluded from aggregation.
	DefaultContentQuality float64 `yaml:"defaultContentQuality"`
}

type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DBPath     string `yaml:"dbPath"`
	TTLSeconds int    `yaml:"ttlSeconds"`
	MaxEntries int    `yaml:"maxEntries"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Upstream: UpstreamConfig{
			BaseURL:        "https://api.tikhub.dev",
			TimeoutSeconds: 30,
			PageSize:       20,
			MaxPages:       20,
			PageDelayMs:    500,
			RPS:            2.0,
			Burst:          10,
			Retry:          RetryConfig{MaxAttempts: 5, BaseDelayMs: 3000, BackoffFactor: 1.5, MaxDelayMs: 30000},
		},
		Evaluator: EvaluatorConfig{
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
			Model:          "models/gemini-2.5-flash",
			TimeoutSeconds: 120,
			Concurrency:    5,
			PaceDelayMs:    200,
			InlineLimitMB:  20,
			Retry:          RetryConfig{MaxAttempts: 4, BaseDelayMs: 1000, BackoffFactor: 2.0, MaxDelayMs: 20000},
		},
		Windows: WindowsConfig{QualityWindowDays: 90, MaxRecentItems: 100},
		Scoring: ScoringConfig{EngagementWeight: 0.65, QualityWeight: 0.35, DefaultContentQuality: 0},
		Cache:   CacheConfig{Enabled: true, DBPath: "./creatorscore.db", TTLSeconds: 3600, MaxEntries: 1000},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// ResolveEnv fills in credential fields from environment variables when
// they are not set in the file.
func (c *Config) ResolveEnv() {
	if c.Upstream.APIKey == "" {
		c.Upstream.APIKey = os.Getenv("CONTENT_API_KEY")
	}
	if c.Evaluator.APIKey == "" {
		c.Evaluator.APIKey = os.Getenv("EVAL_API_KEY")
	}
}

// Validate checks weight sums and operational parameters.
func (c *Config) Validate() error {
	if s := c.Scoring.EngagementWeight + c.Scoring.QualityWeight; math.Abs(s-1.0) > 0.001 {
		return fmt.Errorf("per-item weights sum to %.3f, want 1.0", s)
	}
	if c.Windows.QualityWindowDays <= 0 {
		return errors.New("windows.qualityWindowDays must be positive")
	}
	if c.Windows.MaxRecentItems <= 0 {
		return errors.New("windows.maxRecentItems must be positive")
	}
	if c.Evaluator.Concurrency <= 0 {
		return errors.New("evaluator.concurrency must be positive")
	}
	for name, r := range map[string]RetryConfig{"upstream": c.Upstream.Retry, "evaluator": c.Evaluator.Retry} {
		if r.MaxAttempts <= 0 {
			return fmt.Errorf("%s.retry.maxAttempts must be positive", name)
		}
		if r.BackoffFactor < 1 {
			return fmt.Errorf("%s.retry.backoffFactor must be >= 1", name)
		}
	}
	return nil
}

// Load reads YAML config from path and resolves env fallbacks.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
