// Package config loads and validates scraper configuration via Viper. All
// values are checked eagerly at load so a bad setting fails the run at
// startup, not mid-scrape.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newscheck/newscheck/internal/agentpool"
)

// Config captures every knob the scraper reads.
type Config struct {
	Search    SearchConfig    `mapstructure:"search"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Degrade   DegradeConfig   `mapstructure:"degradation"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Output    OutputConfig    `mapstructure:"output"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SearchConfig governs the keyword sweep.
type SearchConfig struct {
	Keywords              []string      `mapstructure:"keywords"`
	Language              string        `mapstructure:"language"`
	Location              string        `mapstructure:"location"`
	WindowDays            int           `mapstructure:"window_days"`
	MaxArticlesPerKeyword int           `mapstructure:"max_articles_per_keyword"`
	MaxArticlesTotal      int           `mapstructure:"max_articles_total"`
	KeywordPause          time.Duration `mapstructure:"keyword_pause"`
	FetchContent          bool          `mapstructure:"fetch_content"`
}

// FetchConfig controls the plain HTTP fetcher.
type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	RespectRobots bool          `mapstructure:"respect_robots"`
}

// HeadlessConfig configures the chromedp fetcher used for soft-block
// promotion.
type HeadlessConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxParallel int           `mapstructure:"max_parallel"`
	NavTimeout  time.Duration `mapstructure:"nav_timeout"`
}

// RetryConfig is the retry policy surface.
type RetryConfig struct {
	MaxAttempts        int           `mapstructure:"max_attempts"`
	InitialBackoff     time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff         time.Duration `mapstructure:"max_backoff"`
	JitterMin          time.Duration `mapstructure:"jitter_min"`
	JitterMax          time.Duration `mapstructure:"jitter_max"`
	JitterProbability  float64       `mapstructure:"jitter_probability"`
	RetryOnStatusCodes []int         `mapstructure:"retry_on_status_codes"`
}

// DegradeConfig sets the graceful-degradation thresholds.
type DegradeConfig struct {
	Enabled                bool    `mapstructure:"enabled"`
	MinSuccessRate         float64 `mapstructure:"min_success_rate"`
	MaxConsecutiveFailures int     `mapstructure:"max_consecutive_failures"`
	DegradedRetryLimit     int     `mapstructure:"degraded_retry_limit"`
	CollectPartialResults  bool    `mapstructure:"collect_partial_results"`
}

// AgentsConfig holds the user-agent rotation pool.
type AgentsConfig struct {
	Pool []string `mapstructure:"pool"`
}

// AnalyzerConfig configures dedup and ranking.
type AnalyzerConfig struct {
	Categories      map[string][]string `mapstructure:"categories"`
	Weights         map[string]float64  `mapstructure:"weights"`
	TopN            int                 `mapstructure:"top_n"`
	DedupeThreshold float64             `mapstructure:"dedupe_threshold"`
	SeenCacheSize   int                 `mapstructure:"seen_cache_size"`
}

// LLMConfig configures the optional summarizer.
type LLMConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	APIKey    string  `mapstructure:"api_key"`
	BaseURL   string  `mapstructure:"base_url"`
	Model     string  `mapstructure:"model"`
	Threshold float64 `mapstructure:"threshold"`
}

// OutputConfig sets where local artifacts land.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// ArchiveConfig selects the article archive backend.
type ArchiveConfig struct {
	Driver string `mapstructure:"driver"` // memory | postgres
	DSN    string `mapstructure:"dsn"`
	Table  string `mapstructure:"table"`
}

// ArtifactsConfig selects the artifact blob store backend.
type ArtifactsConfig struct {
	Backend   string `mapstructure:"backend"` // local | gcs
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// NotifyConfig selects the run-completion publisher.
type NotifyConfig struct {
	Backend   string `mapstructure:"backend"` // memory | pubsub
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the optional status server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment and validates it.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.keywords", []string{})
	v.SetDefault("search.language", "en")
	v.SetDefault("search.location", "US")
	v.SetDefault("search.window_days", 7)
	v.SetDefault("search.max_articles_per_keyword", 25)
	v.SetDefault("search.max_articles_total", 100)
	v.SetDefault("search.keyword_pause", "1s")
	v.SetDefault("search.fetch_content", false)

	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout", "25s")

	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.initial_backoff", "1s")
	v.SetDefault("retry.max_backoff", "60s")
	v.SetDefault("retry.jitter_min", "500ms")
	v.SetDefault("retry.jitter_max", "2s")
	v.SetDefault("retry.jitter_probability", 0.8)
	v.SetDefault("retry.retry_on_status_codes", []int{429, 403, 500, 502, 503, 504})

	v.SetDefault("degradation.enabled", true)
	v.SetDefault("degradation.min_success_rate", 0.3)
	v.SetDefault("degradation.max_consecutive_failures", 5)
	v.SetDefault("degradation.degraded_retry_limit", 2)
	v.SetDefault("degradation.collect_partial_results", true)

	v.SetDefault("agents.pool", agentpool.DefaultAgents)

	v.SetDefault("analyzer.top_n", 20)
	v.SetDefault("analyzer.dedupe_threshold", 0.85)
	v.SetDefault("analyzer.seen_cache_size", 4096)
	v.SetDefault("analyzer.categories", map[string][]string{
		"AI Development": {
			"artificial intelligence research", "machine learning advances",
			"AI breakthroughs", "neural networks", "deep learning",
		},
		"Fintech": {
			"digital banking", "blockchain finance", "payment technology",
			"financial technology", "cryptocurrency",
		},
		"GenAI Usage": {
			"generative AI", "AI applications", "AI implementation",
			"AI automation", "AI tools",
		},
	})
	v.SetDefault("analyzer.weights", map[string]float64{
		"AI Development": 0.4,
		"Fintech":        0.3,
		"GenAI Usage":    0.3,
	})

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.threshold", 0.1)

	v.SetDefault("output.dir", "Output")
	v.SetDefault("archive.driver", "memory")
	v.SetDefault("archive.table", "articles")
	v.SetDefault("artifacts.backend", "local")
	v.SetDefault("artifacts.prefix", "newscheck")
	v.SetDefault("notify.backend", "memory")
	v.SetDefault("notify.topic", "newscheck-runs")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and sane ranges across the whole config.
func (c Config) Validate() error {
	if len(c.Search.Keywords) == 0 {
		return fmt.Errorf("search.keywords must not be empty")
	}
	if c.Search.WindowDays <= 0 {
		return fmt.Errorf("search.window_days must be > 0")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1")
	}
	if c.Retry.InitialBackoff <= 0 {
		return fmt.Errorf("retry.initial_backoff must be > 0")
	}
	if c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		return fmt.Errorf("retry.max_backoff must be >= retry.initial_backoff")
	}
	if c.Retry.JitterMin < 0 || c.Retry.JitterMax < c.Retry.JitterMin {
		return fmt.Errorf("retry jitter range is invalid")
	}
	if c.Retry.JitterProbability < 0 || c.Retry.JitterProbability > 1 {
		return fmt.Errorf("retry.jitter_probability must be in [0,1]")
	}

	if c.Degrade.MinSuccessRate < 0 || c.Degrade.MinSuccessRate > 1 {
		return fmt.Errorf("degradation.min_success_rate must be in [0,1]")
	}
	if c.Degrade.Enabled && c.Degrade.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("degradation.max_consecutive_failures must be > 0")
	}
	if c.Degrade.DegradedRetryLimit < 0 {
		return fmt.Errorf("degradation.degraded_retry_limit must be >= 0")
	}

	if len(c.Agents.Pool) == 0 {
		return fmt.Errorf("agents.pool must not be empty")
	}
	for i, agent := range c.Agents.Pool {
		if strings.TrimSpace(agent) == "" {
			return fmt.Errorf("agents.pool[%d] is blank", i)
		}
	}

	if len(c.Analyzer.Categories) == 0 {
		return fmt.Errorf("analyzer.categories must not be empty")
	}
	var weightSum float64
	for category, weight := range c.Analyzer.Weights {
		if _, ok := c.Analyzer.Categories[category]; !ok {
			return fmt.Errorf("analyzer.weights names unknown category %q", category)
		}
		if weight < 0 {
			return fmt.Errorf("analyzer.weights[%q] must be >= 0", category)
		}
		weightSum += weight
	}
	if len(c.Analyzer.Weights) != len(c.Analyzer.Categories) {
		return fmt.Errorf("analyzer.weights must cover every category")
	}
	if weightSum < 0.999 || weightSum > 1.001 {
		return fmt.Errorf("analyzer.weights must sum to 1.0, got %.3f", weightSum)
	}
	if c.Analyzer.DedupeThreshold <= 0 || c.Analyzer.DedupeThreshold > 1 {
		return fmt.Errorf("analyzer.dedupe_threshold must be in (0,1]")
	}

	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key must be set when llm is enabled")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	switch c.Archive.Driver {
	case "memory":
	case "postgres":
		if c.Archive.DSN == "" {
			return fmt.Errorf("archive.dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("archive.driver must be memory or postgres, got %q", c.Archive.Driver)
	}
	switch c.Artifacts.Backend {
	case "local":
	case "gcs":
		if c.Artifacts.GCSBucket == "" {
			return fmt.Errorf("artifacts.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("artifacts.backend must be local or gcs, got %q", c.Artifacts.Backend)
	}
	switch c.Notify.Backend {
	case "memory":
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.Topic == "" {
			return fmt.Errorf("notify.project_id and notify.topic must be set for the pubsub backend")
		}
	default:
		return fmt.Errorf("notify.backend must be memory or pubsub, got %q", c.Notify.Backend)
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the status server is enabled")
	}
	return nil
}
