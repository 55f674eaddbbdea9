package factory

import (
	"github.com/mikey/cekfakta-ai/internal/config"
	"github.com/mikey/cekfakta-ai/internal/keywords"
	"github.com/mikey/cekfakta-ai/internal/utils"
	"go.uber.org/zap"
)

// TextProcessorFactory creates text processors and keyword checkers
type TextProcessorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(cfg *config.Config, logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *TextProcessorFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateKeywordChecker creates the checker for the language override keywords
func (f *TextProcessorFactory) CreateKeywordChecker() *keywords.Checker {
	return keywords.NewChecker(f.cfg.GetAnalysis().OverrideKeywords, f.logger)
}
