package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var managedEnv = []string{
	"TRADEFLOW_SERVER_PORT",
	"TRADEFLOW_SERVER_ENVIRONMENT",
	"TRADEFLOW_SERVER_ALLOWED_ORIGINS",
	"TRADEFLOW_AWIN_API_TOKEN",
	"TRADEFLOW_AWIN_PUBLISHER_ID",
	"TRADEFLOW_SERPAPI_API_KEY",
	"TRADEFLOW_SCRAPER_ENABLED",
	"TRADEFLOW_SCRAPER_SEARCH_PATH",
	"TRADEFLOW_ESTIMATOR_PRIMARY_PROVIDER",
	"TRADEFLOW_ESTIMATOR_PRIMARY_API_KEY",
	"TRADEFLOW_ESTIMATOR_RETAILERS",
	"TRADEFLOW_CACHE_TTL",
	"TRADEFLOW_SEARCH_DEFAULT_LIMIT",
	"TRADEFLOW_SEARCH_MAX_LIMIT",
	"TRADEFLOW_RATELIMIT_PER_IP",
}

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		for _, key := range managedEnv {
			os.Unsetenv(key)
		}
	}

	// keep any developer .env out of the way
	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(t.TempDir())

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Awin.BaseURL != "https://api.awin.com" {
			t.Errorf("Awin.BaseURL = %s, want https://api.awin.com", cfg.Awin.BaseURL)
		}
		if cfg.Awin.Timeout != 20*time.Second {
			t.Errorf("Awin.Timeout = %v, want 20s", cfg.Awin.Timeout)
		}
		if cfg.SerpAPI.Country != "uk" {
			t.Errorf("SerpAPI.Country = %s, want uk", cfg.SerpAPI.Country)
		}
		if !cfg.Scraper.Enabled || !cfg.Scraper.Headless {
			t.Errorf("Scraper enabled/headless = %v/%v, want true/true", cfg.Scraper.Enabled, cfg.Scraper.Headless)
		}
		if cfg.Scraper.SettleDelay != 3*time.Second {
			t.Errorf("Scraper.SettleDelay = %v, want 3s", cfg.Scraper.SettleDelay)
		}
		if cfg.Estimator.Primary.Provider != "openai" || cfg.Estimator.Secondary.Provider != "gemini" {
			t.Errorf("Estimator providers = %s/%s, want openai/gemini",
				cfg.Estimator.Primary.Provider, cfg.Estimator.Secondary.Provider)
		}
		if len(cfg.Estimator.Retailers) != 5 {
			t.Errorf("Estimator.Retailers = %v, want 5 retailers", cfg.Estimator.Retailers)
		}
		if cfg.Cache.TTL != 15*time.Minute {
			t.Errorf("Cache.TTL = %v, want 15m", cfg.Cache.TTL)
		}
		if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 50 {
			t.Errorf("Search limits = %d/%d, want 10/50", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
		}
		if cfg.Search.EmptyAlarmWindow != 30*time.Minute {
			t.Errorf("Search.EmptyAlarmWindow = %v, want 30m", cfg.Search.EmptyAlarmWindow)
		}
		if cfg.RateLimit.PerIP != 60 {
			t.Errorf("RateLimit.PerIP = %d, want 60", cfg.RateLimit.PerIP)
		}
		if cfg.Awin.APIToken != "" || cfg.SerpAPI.APIKey != "" {
			t.Error("credentials should default to empty")
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("TRADEFLOW_SERVER_PORT", "9090")
		os.Setenv("TRADEFLOW_SERVER_ENVIRONMENT", "production")
		os.Setenv("TRADEFLOW_AWIN_API_TOKEN", "awin-token")
		os.Setenv("TRADEFLOW_AWIN_PUBLISHER_ID", "12345")
		os.Setenv("TRADEFLOW_SERPAPI_API_KEY", "serp-key")
		os.Setenv("TRADEFLOW_SCRAPER_ENABLED", "false")
		os.Setenv("TRADEFLOW_ESTIMATOR_PRIMARY_PROVIDER", "anthropic")
		os.Setenv("TRADEFLOW_ESTIMATOR_PRIMARY_API_KEY", "sk-ant")
		os.Setenv("TRADEFLOW_ESTIMATOR_RETAILERS", "Wickes,B&Q")
		os.Setenv("TRADEFLOW_CACHE_TTL", "1h")
		os.Setenv("TRADEFLOW_RATELIMIT_PER_IP", "200")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if !cfg.IsProduction() {
			t.Errorf("IsProduction() = false for environment %s", cfg.Server.Environment)
		}
		if cfg.Awin.APIToken != "awin-token" || cfg.Awin.PublisherID != "12345" {
			t.Errorf("Awin credentials = %s/%s, want awin-token/12345", cfg.Awin.APIToken, cfg.Awin.PublisherID)
		}
		if cfg.SerpAPI.APIKey != "serp-key" {
			t.Errorf("SerpAPI.APIKey = %s, want serp-key", cfg.SerpAPI.APIKey)
		}
		if cfg.Scraper.Enabled {
			t.Error("Scraper.Enabled = true, want false")
		}
		if cfg.Estimator.Primary.Provider != "anthropic" || cfg.Estimator.Primary.APIKey != "sk-ant" {
			t.Errorf("Estimator.Primary = %+v", cfg.Estimator.Primary)
		}
		if strings.Join(cfg.Estimator.Retailers, "|") != "Wickes|B&Q" {
			t.Errorf("Estimator.Retailers = %v, want [Wickes B&Q]", cfg.Estimator.Retailers)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
	})

	t.Run("fails validation for unknown estimator provider", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("TRADEFLOW_ESTIMATOR_PRIMARY_PROVIDER", "mystery")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for unknown provider")
		}
	})

	t.Run("fails validation when default limit exceeds max", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("TRADEFLOW_SEARCH_DEFAULT_LIMIT", "80")
		os.Setenv("TRADEFLOW_SEARCH_MAX_LIMIT", "50")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for default_limit > max_limit")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		envContent := `
# Comment line
TEST_VAR_1=value1

TEST_VAR_2=value2
# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_COMMENTED")
		defer func() {
			os.Unsetenv("TEST_VAR_1")
			os.Unsetenv("TEST_VAR_2")
		}()

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		os.Setenv("TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("TEST_OVERRIDE")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func validConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{Enabled: true, SearchPath: "/search?search=%s"},
		Estimator: EstimatorConfig{
			Primary:   ProviderConfig{Provider: "openai"},
			Secondary: ProviderConfig{Provider: "gemini"},
		},
		Cache:  CacheConfig{TTL: 15 * time.Minute},
		Search: SearchConfig{DefaultLimit: 10, MaxLimit: 50},
	}
}

func TestValidate(t *testing.T) {
	t.Run("validates successfully without any credentials", func(t *testing.T) {
		if err := validate(validConfig()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails for non-positive cache ttl", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.TTL = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero ttl")
		}
	})

	t.Run("fails for zero max limit", func(t *testing.T) {
		cfg := validConfig()
		cfg.Search.MaxLimit = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero max limit")
		}
	})

	t.Run("fails for unknown secondary provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.Estimator.Secondary.Provider = "bard"
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for unknown provider")
		}
	})

	t.Run("allows empty provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.Estimator.Secondary.Provider = ""
		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails when enabled scraper path has no placeholder", func(t *testing.T) {
		cfg := validConfig()
		cfg.Scraper.SearchPath = "/search"
		if err := validate(cfg); err == nil {
			t.Errorf("validate() error = nil, want error for search path without %%s")
		}

		cfg.Scraper.Enabled = false
		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for disabled scraper", err)
		}
	})
}
