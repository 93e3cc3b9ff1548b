package model

import "time"

// Config is the complete gapfinder configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Search       SearchConfig       `yaml:"search" mapstructure:"search"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Analysis     AnalysisConfig     `yaml:"analysis" mapstructure:"analysis"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// LLMConfig selects and tunes the extraction model
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// SearchConfig selects document sources
type SearchConfig struct {
	Providers       []string `yaml:"providers" mapstructure:"providers"` // arxiv, tavily
	ArxivURL        string   `yaml:"arxiv_url" mapstructure:"arxiv_url"`
	TavilyURL       string   `yaml:"tavily_url" mapstructure:"tavily_url"`
	TavilyAPIKey    string   `yaml:"tavily_api_key,omitempty" mapstructure:"tavily_api_key"`
	ResultsPerQuery int      `yaml:"results_per_query" mapstructure:"results_per_query"`
	EnrichPages     bool     `yaml:"enrich_pages" mapstructure:"enrich_pages"` // Fetch landing pages for extra text
}

// HTTPConfig controls outbound page fetching
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the search/LLM response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	Workers          int `yaml:"workers" mapstructure:"workers"`                     // Documents analyzed in parallel
	ViewpointWorkers int `yaml:"viewpoint_workers" mapstructure:"viewpoint_workers"` // Viewpoints per document in parallel
	QueryWorkers     int `yaml:"query_workers" mapstructure:"query_workers"`         // Search queries in parallel
}

// RateLimitingConfig throttles outbound calls per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// AnalysisConfig holds the pipeline's tunable thresholds
type AnalysisConfig struct {
	TopKReviews        int         `yaml:"top_k_reviews" mapstructure:"top_k_reviews"`
	TopKResearch       int         `yaml:"top_k_research" mapstructure:"top_k_research"`
	MinClusterSize     int         `yaml:"min_cluster_size" mapstructure:"min_cluster_size"`
	DeviationThreshold float64     `yaml:"deviation_threshold" mapstructure:"deviation_threshold"`
	Viewpoints         []Viewpoint `yaml:"viewpoints" mapstructure:"viewpoints"`
}

// OutputConfig controls where and how results are written
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	Verbose     bool   `yaml:"verbose" mapstructure:"verbose"`
	MetricsFile string `yaml:"metrics_file,omitempty" mapstructure:"metrics_file"` // Prometheus textfile, empty disables
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   60,
			MaxTokens: 2000,
		},
		Search: SearchConfig{
			Providers:       []string{"arxiv"},
			ArxivURL:        "https://export.arxiv.org/api/query",
			TavilyURL:       "https://api.tavily.com/search",
			ResultsPerQuery: 10,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "gapfinder/0.1 (+https://github.com/ppiankov/gapfinder)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".gapfinder-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:          4,
			ViewpointWorkers: 4,
			QueryWorkers:     3,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Analysis: AnalysisConfig{
			TopKReviews:        10,
			TopKResearch:       30,
			MinClusterSize:     2,
			DeviationThreshold: 0.5,
			Viewpoints:         DefaultViewpoints(),
		},
		Output: OutputConfig{
			Dir: "./gapfinder-output",
		},
	}
}
