package textanalytics

import (
	"net/http"

	"github.com/mikey/cekfakta-ai/internal/config"
	"go.uber.org/zap"
)

// Factory creates Text Analytics clients
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new Text Analytics factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a new Text Analytics client
func (f *Factory) CreateClient() *Client {
	sentimentCfg := f.cfg.GetSentiment()

	f.logger.Info("Using Azure Text Analytics", zap.String("endpoint", sentimentCfg.Endpoint))

	return NewClient(
		&http.Client{Timeout: f.cfg.GetUpstream().Timeout},
		sentimentCfg.Endpoint,
		sentimentCfg.APIKey,
		sentimentCfg.ModelVersion,
		f.logger,
	)
}
