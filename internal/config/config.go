package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// envBindings maps configuration keys to the environment variable names
// used by existing deployments
var envBindings = map[string]string{
	"azure_openai.endpoint":        "AZURE_OPENAI_ENDPOINT",
	"azure_openai.api_key":         "AZURE_OPENAI_API_KEY",
	"azure_openai.deployment_name": "AZURE_OPENAI_DEPLOYMENT_NAME",
	"azure_openai.api_version":     "AZURE_OPENAI_API_VERSION",
	"text_analytics.endpoint":      "AZURE_AI_ENDPOINT",
	"text_analytics.api_key":       "AZURE_AI_API_KEY",
	"logging.level":                "LOG_LEVEL",
}

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance.
// configFile may be empty, in which case the default search paths are used.
func New(configFile string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := NewEmptyViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/cekfakta/")
		v.AddConfigPath("$HOME/.cekfakta")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults and environment bindings
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("CEKFAKTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		// BindEnv only fails when no key is given
		_ = v.BindEnv(key, env)
	}

	return v
}

// loadDotEnv loads variables from path into the process environment when the file exists.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "azure")

	// Azure OpenAI defaults
	v.SetDefault("azure_openai.endpoint", "")
	v.SetDefault("azure_openai.api_key", "")
	v.SetDefault("azure_openai.deployment_name", "")
	v.SetDefault("azure_openai.api_version", "2023-05-15")
	v.SetDefault("azure_openai.max_tokens", 500)
	v.SetDefault("azure_openai.temperature", 0.3)
	v.SetDefault("azure_openai.top_p", 1.0)
	v.SetDefault("azure_openai.json_mode", false)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.top_p", 1.0)
	v.SetDefault("openai.json_mode", true)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 500)
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.top_p", 0.95)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 500)
	v.SetDefault("bedrock.temperature", 0.3)
	v.SetDefault("bedrock.top_p", 0.9)

	// Sentiment and language defaults
	v.SetDefault("sentiment.provider", "azure")
	v.SetDefault("text_analytics.endpoint", "")
	v.SetDefault("text_analytics.api_key", "")
	v.SetDefault("text_analytics.model_version", "latest")
	v.SetDefault("vader.threshold", 0.20)

	// Upstream call defaults
	v.SetDefault("upstream.timeout", "8s")
	v.SetDefault("upstream.retries", 1)
	v.SetDefault("upstream.retry_initial_interval", "500ms")

	// Analysis defaults
	v.SetDefault("analysis.max_text_length", 1000)
	v.SetDefault("analysis.default_language", "id")
	v.SetDefault("analysis.override_keywords", []string{"anda", "hadiah", "rekening", "jutaan"})

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/cekfakta_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/cekfakta")
	v.SetDefault("cache.valkey_address", "localhost:6379")
	v.SetDefault("cache.valkey_password", "")
	v.SetDefault("cache.valkey_prefix", "cekfakta:")

	// Server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:5000")
	v.SetDefault("server.max_body_bytes", 64*1024)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "45s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests_per_second", 1.0)
	v.SetDefault("server.rate_limit.burst", 5)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// Set overrides a configuration value
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
