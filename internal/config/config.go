package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Gmail    GmailConfig    `yaml:"gmail"`
	SES      SESConfig      `yaml:"ses"`
	Resolver ResolverConfig `yaml:"resolver"`
	Delivery DeliveryConfig `yaml:"delivery"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the PostgreSQL connection settings for the contact store
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the optional Redis connection used for the resolver cache
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// GmailConfig holds Gmail API transport configuration. Tokens belong to the
// single deployment user; the OAuth flow that mints them is out of scope here.
type GmailConfig struct {
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	AccessToken    string `yaml:"access_token"`
	RefreshToken   string `yaml:"refresh_token"`
	BaseURL        string `yaml:"base_url"`
	TokenURL       string `yaml:"token_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c GmailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SESConfig holds AWS SES transport configuration
type SESConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResolverConfig holds the external name-to-email resolver settings.
// Both keys are optional; with neither set the resolver reports itself
// as not configured and name lookups stop at the local contact store.
type ResolverConfig struct {
	WebSearchKey     string `yaml:"web_search_key"`
	WebSearchBaseURL string `yaml:"web_search_base_url"`
	PeopleKey        string `yaml:"people_key"`
	PeopleBaseURL    string `yaml:"people_base_url"`
	MaxResults       int    `yaml:"max_results"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	CacheTTLSeconds  int    `yaml:"cache_ttl_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c ResolverConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the resolver cache TTL as a duration
func (c ResolverConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// DeliveryConfig holds outbound delivery settings
type DeliveryConfig struct {
	Transport          string `yaml:"transport"` // "gmail" or "ses"
	FromEmail          string `yaml:"from_email"`
	FromName           string `yaml:"from_name"`
	SendTimeoutSeconds int    `yaml:"send_timeout_seconds"`
}

// SendTimeout returns the per-send timeout as a duration
func (c DeliveryConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSeconds) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Gmail.BaseURL == "" {
		cfg.Gmail.BaseURL = "https://gmail.googleapis.com"
	}
	if cfg.Gmail.TokenURL == "" {
		cfg.Gmail.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if cfg.Gmail.TimeoutSeconds == 0 {
		cfg.Gmail.TimeoutSeconds = 30
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-east-1"
	}
	if cfg.Resolver.WebSearchBaseURL == "" {
		cfg.Resolver.WebSearchBaseURL = "https://api.bing.microsoft.com"
	}
	if cfg.Resolver.PeopleBaseURL == "" {
		cfg.Resolver.PeopleBaseURL = "https://api.hunter.io"
	}
	if cfg.Resolver.MaxResults == 0 {
		cfg.Resolver.MaxResults = 5
	}
	if cfg.Resolver.TimeoutSeconds == 0 {
		cfg.Resolver.TimeoutSeconds = 10
	}
	if cfg.Resolver.CacheTTLSeconds == 0 {
		cfg.Resolver.CacheTTLSeconds = 600
	}
	if cfg.Delivery.Transport == "" {
		cfg.Delivery.Transport = "gmail"
	}
	if cfg.Delivery.SendTimeoutSeconds == 0 {
		cfg.Delivery.SendTimeoutSeconds = 30
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}

	// Gmail credentials
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Gmail.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Gmail.ClientSecret = v
	}
	if v := os.Getenv("USER_ACCESS_TOKEN"); v != "" {
		cfg.Gmail.AccessToken = v
	}
	if v := os.Getenv("USER_REFRESH_TOKEN"); v != "" {
		cfg.Gmail.RefreshToken = v
	}

	// SES credentials
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}

	// Resolver keys. The web search key has accumulated several spellings in
	// deployed .env files; accept all of them, most specific first.
	if v := firstEnv("BING_API_KEY", "BING_SEARCH_API_KEY", "BING_SEARCH_KEY", "WEB_SEARCH_API_KEY"); v != "" {
		cfg.Resolver.WebSearchKey = v
	}
	if v := firstEnv("PEOPLE_API_KEY", "HUNTER_API_KEY", "HUNTER_KEY"); v != "" {
		cfg.Resolver.PeopleKey = v
	}

	// Delivery
	if v := os.Getenv("DELIVERY_TRANSPORT"); v != "" {
		cfg.Delivery.Transport = v
	}
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		cfg.Delivery.FromEmail = v
	}
	if v := os.Getenv("SENDER_NAME"); v != "" {
		cfg.Delivery.FromName = v
	}

	return cfg, nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
