package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	AI        AIConfig
	Retailer  RetailerConfig
	Matching  MatchingConfig
	Currency  CurrencyConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
	File   string `mapstructure:"file"`   // empty logs to stdout
}

// AIConfig holds text-generation provider configuration
type AIConfig struct {
	Provider string        `mapstructure:"provider"` // "openai" (any OpenAI-compatible API) or "ollama"
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Models   ModelConfig   `mapstructure:"models"`
}

// ModelConfig selects the model used for each pipeline task
type ModelConfig struct {
	Classify string `mapstructure:"classify"`
	Extract  string `mapstructure:"extract"`
	Cleanup  string `mapstructure:"cleanup"`
	Verify   string `mapstructure:"verify"`
	Currency string `mapstructure:"currency"`
}

// RetailerConfig holds page fetching and retailer search configuration
type RetailerConfig struct {
	Stores         []StoreConfig `mapstructure:"stores"`
	SearchBaseURL  string        `mapstructure:"search_base_url"`
	SearchCurrency string        `mapstructure:"search_currency"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RetryMax       int           `mapstructure:"retry_max"`
	RetryWaitMin   time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax   time.Duration `mapstructure:"retry_wait_max"`
	UserAgents     []string      `mapstructure:"user_agents"`
	// CategoryFilters narrows searches with the retailer's category codes
	CategoryFilters bool `mapstructure:"category_filters"`
}

// StoreConfig is an allow-listed retailer domain and the currency it sells in
type StoreConfig struct {
	Domain   string `mapstructure:"domain"`
	Currency string `mapstructure:"currency"`
}

// AllowedDomains returns the allow-listed retailer domains
func (r RetailerConfig) AllowedDomains() []string {
	domains := make([]string, 0, len(r.Stores))
	for _, store := range r.Stores {
		domains = append(domains, store.Domain)
	}
	return domains
}

// StoreCurrencies returns the domain -> currency table for stores that declare one
func (r RetailerConfig) StoreCurrencies() map[string]string {
	currencies := make(map[string]string, len(r.Stores))
	for _, store := range r.Stores {
		if store.Currency != "" {
			currencies[strings.ToLower(store.Domain)] = strings.ToUpper(store.Currency)
		}
	}
	return currencies
}

// MatchingConfig holds component matching configuration
type MatchingConfig struct {
	FeatureThreshold   float64 `mapstructure:"feature_threshold"`
	EnableCleanupPass  bool    `mapstructure:"enable_cleanup_pass"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// CurrencyConfig holds exchange-rate and geolocation configuration
type CurrencyConfig struct {
	RatesBaseURL    string        `mapstructure:"rates_base_url"`
	GeoBaseURL      string        `mapstructure:"geo_base_url"`
	DefaultCountry  string        `mapstructure:"default_country"` // assumed when geolocation fails
	DefaultCurrency string        `mapstructure:"default_currency"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"` // exchange-rate lifetime
}

// RateLimitConfig holds rate limiting configuration (requests per minute)
type RateLimitConfig struct {
	PerIP    int `mapstructure:"per_ip"`
	Retailer int `mapstructure:"retailer"`
}

// StorageConfig controls the optional comparison store
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from the given YAML file, or from the
// default search paths when path is empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Set config name and paths
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".prebuiltcheck"))
		}
		v.AddConfigPath("/etc/prebuiltcheck/")
	}

	// Environment variable settings
	v.SetEnvPrefix("PREBUILTCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Keys without defaults must be bound explicitly for Unmarshal to see them
	for _, key := range []string{"ai.api_key", "cache.redis_url", "log.file"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "10000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.request_timeout", "3m")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// AI defaults (Groq's OpenAI-compatible endpoint)
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("ai.timeout", "45s")
	v.SetDefault("ai.models.classify", "llama-3.3-70b-versatile")
	v.SetDefault("ai.models.extract", "llama-3.1-8b-instant")
	v.SetDefault("ai.models.cleanup", "llama-3.3-70b-versatile")
	v.SetDefault("ai.models.verify", "llama-3.3-70b-versatile")
	v.SetDefault("ai.models.currency", "llama-3.1-8b-instant")

	// Retailer defaults
	v.SetDefault("retailer.stores", []map[string]interface{}{
		{"domain": "newegg.ca", "currency": "CAD"},
		{"domain": "newegg.com", "currency": "USD"},
		{"domain": "canadacomputers.com", "currency": "CAD"},
		{"domain": "bestbuy.ca", "currency": "CAD"},
	})
	v.SetDefault("retailer.search_base_url", "https://www.newegg.ca")
	v.SetDefault("retailer.search_currency", "CAD")
	v.SetDefault("retailer.timeout", "20s")
	v.SetDefault("retailer.retry_max", 3)
	v.SetDefault("retailer.retry_wait_min", "1s")
	v.SetDefault("retailer.retry_wait_max", "10s")
	v.SetDefault("retailer.category_filters", true)

	// Matching defaults
	v.SetDefault("matching.feature_threshold", 0.5)
	v.SetDefault("matching.enable_cleanup_pass", true)
	v.SetDefault("matching.enable_debug_logging", false)

	// Currency defaults
	v.SetDefault("currency.rates_base_url", "https://open.er-api.com")
	v.SetDefault("currency.geo_base_url", "https://get.geojs.io")
	v.SetDefault("currency.default_country", "US")
	v.SetDefault("currency.default_currency", "USD")
	v.SetDefault("currency.timeout", "10s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 30)
	v.SetDefault("ratelimit.retailer", 60)

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.path", "prebuiltcheck.db")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.AI.Provider {
	case "openai":
		if config.AI.APIKey == "" {
			return fmt.Errorf("AI API key is required (set PREBUILTCHECK_AI_API_KEY)")
		}
	case "ollama":
	default:
		return fmt.Errorf("AI provider must be 'openai' or 'ollama', got: %s", config.AI.Provider)
	}

	if len(config.Retailer.Stores) == 0 {
		return fmt.Errorf("at least one allowed retailer domain is required")
	}
	for _, store := range config.Retailer.Stores {
		if strings.TrimSpace(store.Domain) == "" {
			return fmt.Errorf("retailer store entries require a domain")
		}
	}

	if config.Matching.FeatureThreshold <= 0 || config.Matching.FeatureThreshold > 1 {
		return fmt.Errorf("matching feature threshold must be in (0, 1], got: %v", config.Matching.FeatureThreshold)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Storage.Enabled && config.Storage.Path == "" {
		return fmt.Errorf("storage path is required when storage is enabled")
	}

	return nil
}
