package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Retry    RetryConfig    `mapstructure:"retry" yaml:"retry"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Rates    RatesConfig    `mapstructure:"rates" yaml:"rates"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	Delivery DeliveryConfig `mapstructure:"delivery" yaml:"delivery"`
	Rules    RulesConfig    `mapstructure:"rules" yaml:"rules"`
}

// LLMConfig configures the text-understanding provider
type LLMConfig struct {
	Provider          string  `mapstructure:"provider" yaml:"provider"` // anthropic, openai, ollama
	Model             string  `mapstructure:"model" yaml:"model"`
	APIKey            string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout           int     `mapstructure:"timeout" yaml:"timeout"` // seconds
	MaxTokens         int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
	HTTPProxy         string  `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy        string  `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy           string  `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
}

// RetryConfig bounds retries against the text-understanding provider
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// PipelineConfig holds scheduling policy for one request
type PipelineConfig struct {
	PacingDelay     time.Duration `mapstructure:"pacing_delay" yaml:"pacing_delay"`         // Inserted between classification and fan-out
	CategoryTimeout time.Duration `mapstructure:"category_timeout" yaml:"category_timeout"` // Per category extractor deadline
	Workers         int           `mapstructure:"workers" yaml:"workers"`                   // Max concurrent extractors per request
	QueueWorkers    int           `mapstructure:"queue_workers" yaml:"queue_workers"`       // Concurrent requests in the intake queue
	ClassifierLLM   bool          `mapstructure:"classifier_llm" yaml:"classifier_llm"`     // Ask the provider when no category is detected
}

// RatesConfig configures the live conversion-rate lookup
type RatesConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	TargetCurrency string        `mapstructure:"target_currency" yaml:"target_currency"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	CacheDir       string        `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"` // Empty keeps rates in memory only
}

// HTTPConfig configures outbound fetches of document URLs
type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	HTTPProxy    string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy   string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy      string        `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
}

// DeliveryConfig configures where terminal payloads go
type DeliveryConfig struct {
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout" yaml:"webhook_timeout"`
	OutputDir      string        `mapstructure:"output_dir" yaml:"output_dir,omitempty"`
}

// RulesConfig points at an optional rules document replacing the built-in one
type RulesConfig struct {
	File string `mapstructure:"file" yaml:"file,omitempty"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider:          "anthropic",
			Timeout:           120,
			MaxTokens:         4096,
			RequestsPerSecond: 2,
			Burst:             2,
		},
		Retry: RetryConfig{
			MaxRetries: 6,
			BaseDelay:  time.Second,
			MaxDelay:   30 * time.Second,
		},
		Pipeline: PipelineConfig{
			PacingDelay:     5 * time.Second,
			CategoryTimeout: 120 * time.Second,
			Workers:         8,
			QueueWorkers:    2,
			ClassifierLLM:   true,
		},
		Rates: RatesConfig{
			Enabled:        true,
			BaseURL:        "https://api.frankfurter.app",
			TargetCurrency: "CAD",
			Timeout:        10 * time.Second,
			CacheTTL:       6 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "itinera/0.1",
			MaxBodyBytes: 25 << 20,
		},
		Delivery: DeliveryConfig{
			WebhookTimeout: 30 * time.Second,
		},
	}
}
