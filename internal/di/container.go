package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/cekfakta-ai/internal/config"
	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/mikey/cekfakta-ai/internal/factory"
	"github.com/mikey/cekfakta-ai/internal/keywords"
	"github.com/mikey/cekfakta-ai/internal/logging"
	"github.com/mikey/cekfakta-ai/internal/metrics"
	"github.com/mikey/cekfakta-ai/internal/ports"
	"github.com/mikey/cekfakta-ai/internal/utils"
)

// BuildContainer creates and configures a dependency injection container for the web server
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.New(configFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(metrics.NewRecorder); err != nil {
		return nil, err
	}

	if err := provideClassifier(container); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register classifier service
	if err := container.Provide(func(
		llmClient core.LLMClient,
		analyzers *factory.Analyzers,
		cache core.CacheRepository,
		keywordChecker *keywords.Checker,
		textProcessor *utils.TextProcessor,
		recorder *metrics.Recorder,
		logger *zap.Logger,
		svcCfg core.ServiceConfig,
	) (*core.ClassifierService, error) {
		return core.NewClassifierService(
			llmClient,
			analyzers.Sentiment,
			analyzers.Languages,
			cache,
			keywordChecker,
			textProcessor,
			recorder,
			logger,
			svcCfg,
		)
	}); err != nil {
		return nil, err
	}

	// Register server
	if err := container.Provide(func(service *core.ClassifierService) ports.Classifier {
		return service
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewServerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ServerFactory) (ports.Server, error) {
		return f.CreateServer()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideClassifier registers the factories and upstream clients shared by both binaries
func provideClassifier(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewAnalyzerFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return err
	}

	// Register sentiment analyzer and language detector
	if err := container.Provide(func(f *factory.AnalyzerFactory) (*factory.Analyzers, error) {
		return f.CreateAnalyzers()
	}); err != nil {
		return err
	}

	// Register text processor and keyword checker
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.TextProcessorFactory) *keywords.Checker {
		return f.CreateKeywordChecker()
	}); err != nil {
		return err
	}

	// Register service tunables
	if err := container.Provide(factory.NewServiceConfig); err != nil {
		return err
	}

	return nil
}
