package model

import "time"

// Config is the complete truthweaver configuration
type Config struct {
	Transcription TranscriptionConfig `yaml:"transcription" mapstructure:"transcription"`
	Analysis      AnalysisConfig      `yaml:"analysis" mapstructure:"analysis"`
	HTTP          HTTPConfig          `yaml:"http" mapstructure:"http"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Concurrency   ConcurrencyConfig   `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting  RateLimitConfig     `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output        OutputConfig        `yaml:"output" mapstructure:"output"`
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	Logging       LoggingConfig       `yaml:"logging" mapstructure:"logging"`
}

// TranscriptionConfig selects and configures the speech-to-text source
type TranscriptionConfig struct {
	Provider   string        `yaml:"provider" mapstructure:"provider"` // sidecar, openai, mock
	Model      string        `yaml:"model" mapstructure:"model"`
	Language   string        `yaml:"language" mapstructure:"language"`
	APIKey     string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
}

// AnalysisConfig tunes the contradiction detector and extractor
type AnalysisConfig struct {
	LexiconFile          string `yaml:"lexicon_file,omitempty" mapstructure:"lexicon_file"`
	SkillSpreadThreshold int    `yaml:"skill_spread_threshold" mapstructure:"skill_spread_threshold"`
}

// HTTPConfig holds outbound HTTP settings for remote transcription
type HTTPConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls transcript caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig throttles requests to remote transcription engines
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`

	// Endpoints overrides the default rate per engine URL or host
	Endpoints []EndpointRate `yaml:"endpoints,omitempty" mapstructure:"endpoints"`
}

// EndpointRate is the throttle applied to a single endpoint
type EndpointRate struct {
	Endpoint          string  `yaml:"endpoint" mapstructure:"endpoint"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Markdown bool   `yaml:"markdown" mapstructure:"markdown"`
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
}

// StoreConfig controls the SQLite analysis archive
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LoggingConfig controls structured log output
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Transcription: TranscriptionConfig{
			Provider:   "sidecar",
			Model:      "whisper-1",
			Language:   "en",
			Timeout:    2 * time.Minute,
			MaxRetries: 3,
		},
		Analysis: AnalysisConfig{
			SkillSpreadThreshold: 3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Store: StoreConfig{
			Path: "truthweaver.db",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}
