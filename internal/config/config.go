package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Safety     SafetyConfig     `mapstructure:"safety"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
}

type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	BaseURL         string        `mapstructure:"base_url"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type DispatcherConfig struct {
	MaxPerMinute     int           `mapstructure:"max_per_minute"`
	MaxPerHour       int           `mapstructure:"max_per_hour"`
	MaxRetries       int           `mapstructure:"max_retries"`
	InitialBackoff   time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff       time.Duration `mapstructure:"max_backoff"`
	RateLimitCooloff time.Duration `mapstructure:"rate_limit_cooloff"`
	DefaultTimeout   time.Duration `mapstructure:"default_timeout"`
	UrgentTimeout    time.Duration `mapstructure:"urgent_timeout"`
	QueueCapacity    int           `mapstructure:"queue_capacity"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// SafetyConfig lets deployments tune the classification keyword sets
// without code changes. Empty lists fall back to the built-in defaults.
type SafetyConfig struct {
	HighRiskConditions []string `mapstructure:"high_risk_conditions"`
	UrgentSymptoms     []string `mapstructure:"urgent_symptoms"`
	EvolutionCriteria  []string `mapstructure:"evolution_criteria"`
	SystemicSymptoms   []string `mapstructure:"systemic_symptoms"`
	ProhibitedPhrases  []string `mapstructure:"prohibited_phrases"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("consult")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Gemini.APIKey == "" {
		config.Gemini.APIKey = viper.GetString("gemini_api_key")
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8085)
	viper.SetDefault("server.request_timeout", "45s")
	viper.SetDefault("server.max_body_bytes", 1<<20)
	viper.SetDefault("server.rate_limit", 50.0)
	viper.SetDefault("server.rate_burst", 100)

	viper.SetDefault("gemini.model", "gemini-1.5-flash")
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("gemini.temperature", 0.2)
	viper.SetDefault("gemini.max_output_tokens", 2048)
	viper.SetDefault("gemini.timeout", "30s")

	viper.SetDefault("dispatcher.max_per_minute", 15)
	viper.SetDefault("dispatcher.max_per_hour", 250)
	viper.SetDefault("dispatcher.max_retries", 3)
	viper.SetDefault("dispatcher.initial_backoff", "1s")
	viper.SetDefault("dispatcher.max_backoff", "30s")
	viper.SetDefault("dispatcher.rate_limit_cooloff", "15s")
	viper.SetDefault("dispatcher.default_timeout", "30s")
	viper.SetDefault("dispatcher.urgent_timeout", "20s")
	viper.SetDefault("dispatcher.queue_capacity", 256)

	viper.SetDefault("cache.ttl", "5m")
	viper.SetDefault("cache.cleanup_interval", "10m")
}
