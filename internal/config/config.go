// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Feed       FeedConfig       `mapstructure:"feed"`
	CF         CFConfig         `mapstructure:"cf"`
	Popularity PopularityConfig `mapstructure:"popularity"`
	Safety     SafetyConfig     `mapstructure:"safety"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // development, staging, production
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Name         string        `mapstructure:"name"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FeedConfig holds feed composition and caching settings.
type FeedConfig struct {
	// Percentages maps strategy name to its share of every batch.
	// Must sum to exactly 1.0; validated once at startup, before the
	// service accepts traffic.
	Percentages map[string]float64 `mapstructure:"percentages"`

	// RemainderStrategy absorbs integer-rounding loss so per-strategy
	// quotas always sum exactly to the requested total.
	RemainderStrategy string `mapstructure:"remainder_strategy"`

	// BlendWeights maps strategy name to the multiplier applied to its
	// rank-normalized scores when merging strategy outputs.
	BlendWeights map[string]float64 `mapstructure:"blend_weights"`

	BatchSize       int           `mapstructure:"batch_size"`        // precomputed batch length
	DefaultPageSize int           `mapstructure:"default_page_size"` // when the client sends no limit
	MaxPageSize     int           `mapstructure:"max_page_size"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CacheKeyPrefix  string        `mapstructure:"cache_key_prefix"`
	SourceTimeout   time.Duration `mapstructure:"source_timeout"` // per-source budget during composition
}

// CFConfig holds collaborative filtering tuning parameters. These are
// deliberately configuration rather than constants so tuning does not
// require a deploy.
type CFConfig struct {
	SeedLimit         int           `mapstructure:"seed_limit"`          // user's own positive interactions
	NeighborLimit     int           `mapstructure:"neighbor_limit"`      // co-interacting users per seed
	CandidateLimit    int           `mapstructure:"candidate_limit"`     // candidate contents per neighbor
	LikeWeight        float64       `mapstructure:"like_weight"`         // must hold like < save < share
	SaveWeight        float64       `mapstructure:"save_weight"`
	ShareWeight       float64       `mapstructure:"share_weight"`
	ViewWeight        float64       `mapstructure:"view_weight"` // popularity refresh only
	LanguageBoost     float64       `mapstructure:"language_boost"`      // multiplier for language match, > 1.0
	ViewRecencyWindow time.Duration `mapstructure:"view_recency_window"` // suppress re-serving viewed content
}

// Weights assembles the interaction weight table from the individual
// settings.
func (c *CFConfig) Weights() map[string]float64 {
	return map[string]float64{
		"like":  c.LikeWeight,
		"save":  c.SaveWeight,
		"share": c.ShareWeight,
		"view":  c.ViewWeight,
	}
}

// PopularityConfig holds the background popularity refresher settings.
type PopularityConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Window    time.Duration `mapstructure:"window"` // trailing interaction window
	Timeout   time.Duration `mapstructure:"timeout"`
	OnStartup bool          `mapstructure:"on_startup"`
}

// SafetyConfig holds the Trust & Safety service client settings.
type SafetyConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
	CB      CBConfig      `mapstructure:"circuit_breaker"`
}

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	WaitTime    time.Duration `mapstructure:"wait_time"`
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	// Environment variable settings
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "feed-engine-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "feed_engine")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Feed defaults
	v.SetDefault("feed.percentages", map[string]float64{
		"cf":      0.40,
		"popular": 0.30,
		"new":     0.10,
		"random":  0.20,
	})
	v.SetDefault("feed.remainder_strategy", "random")
	v.SetDefault("feed.blend_weights", map[string]float64{
		"cf":      1.0,
		"popular": 0.8,
		"new":     0.6,
		"random":  0.4,
	})
	v.SetDefault("feed.batch_size", 250)
	v.SetDefault("feed.default_page_size", 20)
	v.SetDefault("feed.max_page_size", 50)
	v.SetDefault("feed.cache_ttl", "30m")
	v.SetDefault("feed.cache_key_prefix", "feed-engine")
	v.SetDefault("feed.source_timeout", "3s")

	// Collaborative filtering defaults
	v.SetDefault("cf.seed_limit", 100)
	v.SetDefault("cf.neighbor_limit", 50)
	v.SetDefault("cf.candidate_limit", 20)
	v.SetDefault("cf.like_weight", 1.0)
	v.SetDefault("cf.save_weight", 1.5)
	v.SetDefault("cf.share_weight", 2.0)
	v.SetDefault("cf.view_weight", 0.1)
	v.SetDefault("cf.language_boost", 1.5)
	v.SetDefault("cf.view_recency_window", "72h")

	// Popularity refresher defaults
	v.SetDefault("popularity.interval", "10m")
	v.SetDefault("popularity.window", "168h") // 7 days
	v.SetDefault("popularity.timeout", "60s")
	v.SetDefault("popularity.on_startup", true)

	// Safety service defaults
	v.SetDefault("safety.base_url", "http://localhost:8091")
	v.SetDefault("safety.timeout", "2s")
	v.SetDefault("safety.retry.max_attempts", 2)
	v.SetDefault("safety.retry.wait_time", "100ms")
	v.SetDefault("safety.retry.max_wait_time", "500ms")
	v.SetDefault("safety.circuit_breaker.max_requests", 3)
	v.SetDefault("safety.circuit_breaker.interval", "60s")
	v.SetDefault("safety.circuit_breaker.timeout", "30s")
	v.SetDefault("safety.circuit_breaker.failure_ratio", 0.5)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)
}
