package openai

import (
	"net/http"

	"github.com/mikey/cekfakta-ai/internal/config"
	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates new instances of OpenAIClient
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenAIClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAzureClient creates an OpenAIClient talking to an Azure OpenAI deployment
func (f *Factory) CreateAzureClient() (core.LLMClient, error) {
	azureCfg := f.cfg.GetAzureOpenAI()

	clientCfg := openai.DefaultAzureConfig(azureCfg.APIKey, azureCfg.Endpoint)
	clientCfg.APIVersion = azureCfg.APIVersion
	clientCfg.AzureModelMapperFunc = func(string) string {
		return azureCfg.DeploymentName
	}
	clientCfg.HTTPClient = &http.Client{Timeout: f.cfg.GetUpstream().Timeout}

	f.logger.Info("Using Azure OpenAI",
		zap.String("endpoint", azureCfg.Endpoint),
		zap.String("deployment", azureCfg.DeploymentName),
		zap.String("api_version", azureCfg.APIVersion))

	return NewOpenAIClient(
		openai.NewClientWithConfig(clientCfg),
		azureCfg.DeploymentName,
		azureCfg.MaxTokens,
		azureCfg.Temperature,
		azureCfg.TopP,
		azureCfg.JSONMode,
		f.logger,
	), nil
}

// CreateLLMClient creates an OpenAIClient talking to the OpenAI API
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	openaiCfg := f.cfg.GetOpenAI()

	clientCfg := openai.DefaultConfig(openaiCfg.APIKey)
	if openaiCfg.BaseURL != "" {
		clientCfg.BaseURL = openaiCfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: f.cfg.GetUpstream().Timeout}

	f.logger.Info("Using OpenAI", zap.String("model", openaiCfg.ModelName))

	return NewOpenAIClient(
		openai.NewClientWithConfig(clientCfg),
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		openaiCfg.JSONMode,
		f.logger,
	), nil
}
