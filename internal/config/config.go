package config

import (
	"os"
	"strings"
	"time"

	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Wiki      WikiConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr is host:port, or empty when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type KeycloakConfig struct {
	URL      string
	Realm    string
	ClientID string
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// WikiConfig carries the knobs of the wiki itself.
type WikiConfig struct {
	SiteName     string
	FrontPage    string
	BaseURL      string
	RefererHider string
	HistoryLimit int
	DiffContext  int
	CacheTTL     time.Duration
	LogSampling  time.Duration
}

// DefaultRefererHider is the redirector prepended to external links.
const DefaultRefererHider = "http://www.google.com/url?sa=D&amp;q="

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("WIKI_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("MONGODB_DATABASE", "gowiki")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("WIKI_SITE_NAME", "Wiki")
	viper.SetDefault("WIKI_FRONT_PAGE", "MainPage")
	viper.SetDefault("WIKI_BASE_URL", "http://localhost:8080")
	viper.SetDefault("WIKI_REFERER_HIDER", DefaultRefererHider)
	viper.SetDefault("WIKI_HISTORY_LIMIT", 1000)
	viper.SetDefault("WIKI_DIFF_CONTEXT", 5)
	viper.SetDefault("WIKI_CACHE_TTL_SECONDS", 600)
	viper.SetDefault("WIKI_LOG_SAMPLING_MS", 0)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  time.Duration(viper.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(viper.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:      viper.GetString("KEYCLOAK_URL"),
			Realm:    viper.GetString("KEYCLOAK_REALM"),
			ClientID: viper.GetString("KEYCLOAK_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Wiki: WikiConfig{
			SiteName:     viper.GetString("WIKI_SITE_NAME"),
			FrontPage:    viper.GetString("WIKI_FRONT_PAGE"),
			BaseURL:      strings.TrimRight(viper.GetString("WIKI_BASE_URL"), "/"),
			RefererHider: viper.GetString("WIKI_REFERER_HIDER"),
			HistoryLimit: viper.GetInt("WIKI_HISTORY_LIMIT"),
			DiffContext:  viper.GetInt("WIKI_DIFF_CONTEXT"),
			CacheTTL:     time.Duration(viper.GetInt("WIKI_CACHE_TTL_SECONDS")) * time.Second,
			LogSampling:  time.Duration(viper.GetInt("WIKI_LOG_SAMPLING_MS")) * time.Millisecond,
		},
	}

	if cfg.JWT.Secret == "" && cfg.Keycloak.URL == "" {
		logger.Warn("neither JWT_SECRET nor KEYCLOAK_URL is set; page edits are disabled")
	}
	if cfg.Wiki.HistoryLimit <= 0 {
		cfg.Wiki.HistoryLimit = 1000
	}

	return cfg, nil
}

// EditingEnabled reports whether any token verifier can be built.
func (c *Config) EditingEnabled() bool {
	return c.JWT.Secret != "" || (c.Keycloak.URL != "" && c.Keycloak.ClientID != "")
}
