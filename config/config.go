package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TRADEFLOW_AWIN_API_TOKEN
const EnvPrefix = "TRADEFLOW"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Awin      AwinConfig      `mapstructure:"awin"`
	SerpAPI   SerpAPIConfig   `mapstructure:"serpapi"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Estimator EstimatorConfig `mapstructure:"estimator"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Search    SearchConfig    `mapstructure:"search"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AwinConfig holds Awin product search credentials
type AwinConfig struct {
	APIToken    string        `mapstructure:"api_token"`
	PublisherID string        `mapstructure:"publisher_id"`
	BaseURL     string        `mapstructure:"base_url"`
	Region      string        `mapstructure:"region"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Rate        float64       `mapstructure:"rate"`
}

// SerpAPIConfig holds Google Shopping search settings
type SerpAPIConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Country  string        `mapstructure:"country"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Rate     float64       `mapstructure:"rate"`
}

// ScraperConfig holds retailer scraping and browser settings
type ScraperConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"`
	SearchPath  string        `mapstructure:"search_path"`
	StoreName   string        `mapstructure:"store_name"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Headless    bool          `mapstructure:"headless"`
	BrowserBin  string        `mapstructure:"browser_bin"`
	ControlURL  string        `mapstructure:"control_url"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// ProviderConfig selects one text-generation provider
type ProviderConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
}

// EstimatorConfig holds the generative fallback settings
type EstimatorConfig struct {
	Primary    ProviderConfig `mapstructure:"primary"`
	Secondary  ProviderConfig `mapstructure:"secondary"`
	Timeout    time.Duration  `mapstructure:"timeout"`
	MaxResults int            `mapstructure:"max_results"`
	Currency   string         `mapstructure:"currency"`
	Market     string         `mapstructure:"market"`
	Retailers  []string       `mapstructure:"retailers"`
	// PromptTemplate overrides the built-in user prompt (text/template)
	PromptTemplate string `mapstructure:"prompt_template"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// SearchConfig holds aggregator limits
type SearchConfig struct {
	DefaultLimit     int           `mapstructure:"default_limit"`
	MaxLimit         int           `mapstructure:"max_limit"`
	EmptyAlarmWindow time.Duration `mapstructure:"empty_alarm_window"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// PerIP is requests per minute per client address
	PerIP int `mapstructure:"per_ip"`
}

var supportedProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"claude":    true,
	"gemini":    true,
	"ollama":    true,
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/tradeflow/")

	// Environment variable settings; nested keys map server.port -> TRADEFLOW_SERVER_PORT
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values; every key needs one so Unmarshal sees env overrides
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env without overriding variables already set.
// A missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("log.level", "")

	// Awin defaults
	v.SetDefault("awin.api_token", "")
	v.SetDefault("awin.publisher_id", "")
	v.SetDefault("awin.base_url", "https://api.awin.com")
	v.SetDefault("awin.region", "GB")
	v.SetDefault("awin.timeout", "20s")
	v.SetDefault("awin.rate", 5)

	// SerpAPI defaults
	v.SetDefault("serpapi.api_key", "")
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("serpapi.country", "uk")
	v.SetDefault("serpapi.language", "en")
	v.SetDefault("serpapi.timeout", "20s")
	v.SetDefault("serpapi.rate", 2)

	// Scraper defaults
	v.SetDefault("scraper.enabled", true)
	v.SetDefault("scraper.base_url", "https://www.screwfix.com")
	v.SetDefault("scraper.search_path", "/search?search=%s")
	v.SetDefault("scraper.store_name", "Screwfix")
	v.SetDefault("scraper.settle_delay", "3s")
	v.SetDefault("scraper.timeout", "45s")
	v.SetDefault("scraper.headless", true)
	v.SetDefault("scraper.browser_bin", "")
	v.SetDefault("scraper.control_url", "")
	v.SetDefault("scraper.user_agent", "")

	// Estimator defaults
	v.SetDefault("estimator.primary.provider", "openai")
	v.SetDefault("estimator.primary.api_key", "")
	v.SetDefault("estimator.primary.model", "gpt-4o-mini")
	v.SetDefault("estimator.primary.base_url", "")
	v.SetDefault("estimator.secondary.provider", "gemini")
	v.SetDefault("estimator.secondary.api_key", "")
	v.SetDefault("estimator.secondary.model", "gemini-1.5-flash")
	v.SetDefault("estimator.secondary.base_url", "")
	v.SetDefault("estimator.timeout", "30s")
	v.SetDefault("estimator.max_results", 10)
	v.SetDefault("estimator.currency", "GBP")
	v.SetDefault("estimator.market", "United Kingdom")
	v.SetDefault("estimator.retailers", []string{"Screwfix", "Toolstation", "B&Q", "Wickes", "Travis Perkins"})
	v.SetDefault("estimator.prompt_template", "")

	// Cache defaults
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("cache.cleanup_interval", "5m")

	// Search defaults
	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.max_limit", 50)
	v.SetDefault("search.empty_alarm_window", "30m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
}

// validate validates the configuration.
// Missing source credentials are allowed: those sources simply stay idle.
func validate(config *Config) error {
	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got: %s", config.Cache.TTL)
	}

	if config.Search.MaxLimit <= 0 {
		return fmt.Errorf("search max_limit must be positive, got: %d", config.Search.MaxLimit)
	}

	if config.Search.DefaultLimit <= 0 || config.Search.DefaultLimit > config.Search.MaxLimit {
		return fmt.Errorf("search default_limit must be between 1 and %d, got: %d",
			config.Search.MaxLimit, config.Search.DefaultLimit)
	}

	for name, p := range map[string]ProviderConfig{
		"primary":   config.Estimator.Primary,
		"secondary": config.Estimator.Secondary,
	} {
		if p.Provider == "" {
			continue
		}
		if !supportedProviders[strings.ToLower(p.Provider)] {
			return fmt.Errorf("estimator %s provider must be one of openai, anthropic, gemini, ollama, got: %s", name, p.Provider)
		}
	}

	if config.Scraper.Enabled && !strings.Contains(config.Scraper.SearchPath, "%s") {
		return fmt.Errorf("scraper search_path must contain %%s, got: %s", config.Scraper.SearchPath)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}
