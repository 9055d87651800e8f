// Package config loads process configuration from defaults, an optional YAML
// file, and environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/carecost/carecost/directory"
)

// Config is the full process configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Search    SearchConfig    `yaml:"search"`
	Directory DirectoryConfig `yaml:"directory"`
	Session   SessionConfig   `yaml:"session"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LLMConfig selects and configures the reasoning model provider.
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // openai, claude, gemini
	Model           string  `yaml:"model"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
	GeminiAPIKey    string  `yaml:"gemini_api_key"`
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float64 `yaml:"temperature"`
}

// SearchConfig configures the web search collaborator.
type SearchConfig struct {
	TavilyAPIKey string `yaml:"tavily_api_key"`
}

// DirectoryConfig configures the provider directory lookup.
type DirectoryConfig struct {
	RegistryURL string `yaml:"registry_url"`
}

// SessionConfig selects and configures the session store backend.
type SessionConfig struct {
	Backend  string         `yaml:"backend"` // memory, redis, mongo, postgres
	Redis    RedisConfig    `yaml:"redis"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// RedisConfig holds Redis settings for the session store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MongoConfig holds MongoDB settings for the session store.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// PostgresConfig holds PostgreSQL settings for the session store.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AnalyticsConfig selects the per-run query analytics backend.
type AnalyticsConfig struct {
	Backend  string         `yaml:"backend"` // none, memory, postgres
	Postgres PostgresConfig `yaml:"postgres"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Disable     bool   `yaml:"disable"`
	Environment string `yaml:"environment"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Temperature: 0,
		},
		Directory: DirectoryConfig{
			RegistryURL: directory.DefaultRegistryURL,
		},
		Session: SessionConfig{
			Backend: "memory",
			Redis:   RedisConfig{Addr: "localhost:6379"},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "carecost",
				Collection: "sessions",
			},
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "postgres",
				DBName:  "carecost",
				SSLMode: "disable",
			},
		},
		Analytics: AnalyticsConfig{
			Backend: "none",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "postgres",
				DBName:  "carecost",
				SSLMode: "disable",
			},
		},
		Telemetry: TelemetryConfig{Environment: "development"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.LLM.Provider, "CARECOST_LLM_PROVIDER")
	setString(&c.LLM.Model, "CARECOST_LLM_MODEL")
	setString(&c.LLM.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&c.LLM.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.Search.TavilyAPIKey, "TAVILY_API_KEY")
	setString(&c.Directory.RegistryURL, "CARECOST_NPI_REGISTRY_URL")
	setString(&c.Session.Backend, "CARECOST_SESSION_BACKEND")
	setString(&c.Session.Redis.Addr, "CARECOST_REDIS_ADDR")
	setString(&c.Session.Redis.Password, "CARECOST_REDIS_PASSWORD")
	setInt(&c.Session.Redis.DB, "CARECOST_REDIS_DB")
	setString(&c.Session.Mongo.URI, "CARECOST_MONGO_URI")
	setString(&c.Session.Postgres.Host, "CARECOST_POSTGRES_HOST")
	setInt(&c.Session.Postgres.Port, "CARECOST_POSTGRES_PORT")
	setString(&c.Session.Postgres.User, "CARECOST_POSTGRES_USER")
	setString(&c.Session.Postgres.Password, "CARECOST_POSTGRES_PASSWORD")
	setString(&c.Session.Postgres.DBName, "CARECOST_POSTGRES_DBNAME")
	setString(&c.Analytics.Backend, "CARECOST_ANALYTICS_BACKEND")
	setBool(&c.Telemetry.Disable, "CARECOST_TELEMETRY_DISABLE")
	setString(&c.Telemetry.Environment, "CARECOST_ENVIRONMENT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	v := NewValidator()
	v.ValidateOneOf("llm.provider", c.LLM.Provider, "openai", "claude", "gemini")
	v.ValidateOneOf("session.backend", c.Session.Backend, "memory", "redis", "mongo", "postgres")
	v.ValidateOneOf("analytics.backend", c.Analytics.Backend, "none", "memory", "postgres")
	v.RequireNonEmpty("directory.registry_url", c.Directory.RegistryURL)

	switch c.Session.Backend {
	case "redis":
		v.RequireNonEmpty("session.redis.addr", c.Session.Redis.Addr)
		v.ValidateDBNumber("session.redis.db", c.Session.Redis.DB)
	case "mongo":
		v.RequireNonEmpty("session.mongo.uri", c.Session.Mongo.URI)
	case "postgres":
		v.RequireNonEmpty("session.postgres.host", c.Session.Postgres.Host)
		v.ValidatePort("session.postgres.port", c.Session.Postgres.Port)
	}

	if c.Analytics.Backend == "postgres" {
		v.RequireNonEmpty("analytics.postgres.host", c.Analytics.Postgres.Host)
		v.ValidatePort("analytics.postgres.port", c.Analytics.Postgres.Port)
	}

	return v.Error()
}

// APIKey returns the key for the configured provider.
func (c *LLMConfig) APIKey() string {
	switch c.Provider {
	case "claude":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return c.OpenAIAPIKey
	}
}
