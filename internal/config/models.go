package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/cekfakta-ai/internal/core"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// AzureOpenAIConfig represents the configuration for an Azure OpenAI deployment
type AzureOpenAIConfig struct {
	Endpoint       string
	APIKey         string
	DeploymentName string
	APIVersion     string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	JSONMode       bool
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	JSONMode    bool
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// SentimentConfig represents the configuration for sentiment and language analysis
type SentimentConfig struct {
	Provider       string
	Endpoint       string
	APIKey         string
	ModelVersion   string
	VaderThreshold float64
}

// UpstreamConfig bounds every outbound call
type UpstreamConfig struct {
	Timeout              time.Duration
	Retries              int
	RetryInitialInterval time.Duration
}

// Budget is the longest one classification may spend on upstream calls
func (u UpstreamConfig) Budget() time.Duration {
	retries := u.Retries
	if retries < 0 {
		retries = 0
	}
	return core.UpstreamBudget(u.Timeout, uint64(retries), u.RetryInitialInterval)
}

// responseMargin is the time left after the upstream budget to write the error page
const responseMargin = 2 * time.Second

// AnalysisConfig represents input limits and language handling
type AnalysisConfig struct {
	MaxTextLength    int
	DefaultLanguage  string
	OverrideKeywords []string
}

// CacheConfig represents the result cache configuration
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	ValkeyAddress    string
	ValkeyPassword   string
	ValkeyPrefix     string
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress      string
	MaxBodyBytes       int64
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	AllowedOrigins     []string
	RateLimitEnabled   bool
	RateLimitPerSecond float64
	RateLimitBurst     int
	MetricsEnabled     bool
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: strings.ToLower(c.GetString("llm.provider")),
	}
}

// GetAzureOpenAI returns the Azure OpenAI configuration
func (c *Config) GetAzureOpenAI() AzureOpenAIConfig {
	return AzureOpenAIConfig{
		Endpoint:       c.GetString("azure_openai.endpoint"),
		APIKey:         c.GetString("azure_openai.api_key"),
		DeploymentName: c.GetString("azure_openai.deployment_name"),
		APIVersion:     c.GetString("azure_openai.api_version"),
		MaxTokens:      c.GetInt("azure_openai.max_tokens"),
		Temperature:    float32(c.GetFloat64("azure_openai.temperature")),
		TopP:           float32(c.GetFloat64("azure_openai.top_p")),
		JSONMode:       c.GetBool("azure_openai.json_mode"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		JSONMode:    c.GetBool("openai.json_mode"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetSentiment returns the sentiment and language analysis configuration
func (c *Config) GetSentiment() SentimentConfig {
	return SentimentConfig{
		Provider:       strings.ToLower(c.GetString("sentiment.provider")),
		Endpoint:       c.GetString("text_analytics.endpoint"),
		APIKey:         c.GetString("text_analytics.api_key"),
		ModelVersion:   c.GetString("text_analytics.model_version"),
		VaderThreshold: c.GetFloat64("vader.threshold"),
	}
}

// GetUpstream returns the outbound call configuration
func (c *Config) GetUpstream() UpstreamConfig {
	return UpstreamConfig{
		Timeout:              c.v.GetDuration("upstream.timeout"),
		Retries:              c.GetInt("upstream.retries"),
		RetryInitialInterval: c.v.GetDuration("upstream.retry_initial_interval"),
	}
}

// GetAnalysis returns the input limits and language handling configuration
func (c *Config) GetAnalysis() AnalysisConfig {
	return AnalysisConfig{
		MaxTextLength:    c.GetInt("analysis.max_text_length"),
		DefaultLanguage:  c.GetString("analysis.default_language"),
		OverrideKeywords: c.GetStringSlice("analysis.override_keywords"),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:             strings.ToLower(c.GetString("cache.type")),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              c.v.GetDuration("cache.ttl"),
		CleanupFrequency: c.v.GetDuration("cache.cleanup_frequency"),
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
		ValkeyAddress:    c.GetString("cache.valkey_address"),
		ValkeyPassword:   c.GetString("cache.valkey_password"),
		ValkeyPrefix:     c.GetString("cache.valkey_prefix"),
	}
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:      c.GetString("server.listen_address"),
		MaxBodyBytes:       c.v.GetInt64("server.max_body_bytes"),
		ReadTimeout:        c.v.GetDuration("server.read_timeout"),
		WriteTimeout:       c.v.GetDuration("server.write_timeout"),
		IdleTimeout:        c.v.GetDuration("server.idle_timeout"),
		ShutdownTimeout:    c.v.GetDuration("server.shutdown_timeout"),
		AllowedOrigins:     c.GetStringSlice("server.cors.allowed_origins"),
		RateLimitEnabled:   c.GetBool("server.rate_limit.enabled"),
		RateLimitPerSecond: c.GetFloat64("server.rate_limit.requests_per_second"),
		RateLimitBurst:     c.GetInt("server.rate_limit.burst"),
		MetricsEnabled:     c.GetBool("metrics.enabled"),
	}
}

// Validate checks that the settings required by the selected providers are present.
// Every problem is reported in one ErrConfiguration.
func (c *Config) Validate() error {
	var problems []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, key+" is required")
		}
	}

	switch provider := c.GetLLM().Provider; provider {
	case "azure":
		azureCfg := c.GetAzureOpenAI()
		require("AZURE_OPENAI_ENDPOINT", azureCfg.Endpoint)
		require("AZURE_OPENAI_API_KEY", azureCfg.APIKey)
		require("AZURE_OPENAI_DEPLOYMENT_NAME", azureCfg.DeploymentName)
		require("AZURE_OPENAI_API_VERSION", azureCfg.APIVersion)
	case "openai":
		require("openai.api_key", c.GetOpenAI().APIKey)
	case "gemini":
		require("gemini.api_key", c.GetGemini().APIKey)
	case "bedrock":
		require("bedrock.region", c.GetBedrock().Region)
	default:
		problems = append(problems, fmt.Sprintf("unsupported llm.provider %q", provider))
	}

	switch provider := c.GetSentiment().Provider; provider {
	case "azure":
		require("AZURE_AI_ENDPOINT", c.GetString("text_analytics.endpoint"))
		require("AZURE_AI_API_KEY", c.GetString("text_analytics.api_key"))
	case "vader":
	default:
		problems = append(problems, fmt.Sprintf("unsupported sentiment.provider %q", provider))
	}

	for _, key := range []string{"upstream.timeout", "server.read_timeout", "server.write_timeout", "server.idle_timeout", "server.shutdown_timeout"} {
		d, err := c.GetDuration(key)
		if err != nil {
			problems = append(problems, err.Error())
		} else if d <= 0 {
			problems = append(problems, key+" must be positive")
		}
	}
	if _, err := c.GetDuration("upstream.retry_initial_interval"); err != nil {
		problems = append(problems, err.Error())
	}
	if c.GetInt("upstream.retries") < 0 {
		problems = append(problems, "upstream.retries must not be negative")
	}
	if writeTimeout, budget := c.GetServer().WriteTimeout, c.GetUpstream().Budget(); writeTimeout > 0 && writeTimeout < budget+responseMargin {
		problems = append(problems, fmt.Sprintf("server.write_timeout %s must be at least %s: the upstream budget is %s",
			writeTimeout, budget+responseMargin, budget))
	}
	if c.GetInt("analysis.max_text_length") <= 0 {
		problems = append(problems, "analysis.max_text_length must be positive")
	}
	if _, err := core.LanguageFromCode(c.GetString("analysis.default_language")); err != nil {
		problems = append(problems, "analysis.default_language: "+err.Error())
	}

	if cacheCfg := c.GetCache(); cacheCfg.Enabled {
		switch cacheCfg.Type {
		case "memory", "sqlite", "mysql", "valkey":
		default:
			problems = append(problems, fmt.Sprintf("unsupported cache.type %q", cacheCfg.Type))
		}
		for _, key := range []string{"cache.ttl", "cache.cleanup_frequency"} {
			if d, err := c.GetDuration(key); err != nil {
				problems = append(problems, err.Error())
			} else if d <= 0 {
				problems = append(problems, key+" must be positive")
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", core.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
