package factory

import (
	"fmt"

	"github.com/mikey/cekfakta-ai/internal/adapters/textanalytics"
	"github.com/mikey/cekfakta-ai/internal/adapters/vader"
	"github.com/mikey/cekfakta-ai/internal/config"
	"github.com/mikey/cekfakta-ai/internal/core"
	"go.uber.org/zap"
)

// Analyzers groups the sentiment analyzer with the optional language detector
type Analyzers struct {
	Sentiment core.SentimentAnalyzer
	Languages core.LanguageDetector // nil when the provider cannot detect languages
}

// AnalyzerFactory creates sentiment analyzers and language detectors
type AnalyzerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config, logger *zap.Logger) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAnalyzers creates the analyzers based on the configuration
func (f *AnalyzerFactory) CreateAnalyzers() (*Analyzers, error) {
	sentimentCfg := f.cfg.GetSentiment()

	switch sentimentCfg.Provider {
	case "azure":
		client := textanalytics.NewFactory(f.cfg, f.logger).CreateClient()
		return &Analyzers{Sentiment: client, Languages: client}, nil
	case "vader":
		f.logger.Info("Using offline VADER sentiment analysis, language detection disabled",
			zap.Float64("threshold", sentimentCfg.VaderThreshold))
		return &Analyzers{Sentiment: vader.NewAnalyzer(sentimentCfg.VaderThreshold, f.logger)}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported sentiment provider: %s", core.ErrConfiguration, sentimentCfg.Provider)
	}
}
