package factory

import (
	"fmt"

	"github.com/mikey/cekfakta-ai/internal/adapters/web"
	"github.com/mikey/cekfakta-ai/internal/config"
	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/mikey/cekfakta-ai/internal/metrics"
	"github.com/mikey/cekfakta-ai/internal/ports"
	"go.uber.org/zap"
)

// ServerFactory creates the HTTP front-end
type ServerFactory struct {
	cfg        *config.Config
	logger     *zap.Logger
	classifier ports.Classifier
	recorder   *metrics.Recorder
}

// NewServerFactory creates a new server factory. recorder may be nil.
func NewServerFactory(cfg *config.Config, logger *zap.Logger, classifier ports.Classifier, recorder *metrics.Recorder) *ServerFactory {
	return &ServerFactory{
		cfg:        cfg,
		logger:     logger,
		classifier: classifier,
		recorder:   recorder,
	}
}

// CreateServer creates the HTTP server with its router
func (f *ServerFactory) CreateServer() (ports.Server, error) {
	serverCfg := f.cfg.GetServer()

	budget := f.cfg.GetUpstream().Budget()
	if serverCfg.WriteTimeout <= budget {
		return nil, fmt.Errorf("%w: server.write_timeout %s does not cover the upstream budget %s",
			core.ErrConfiguration, serverCfg.WriteTimeout, budget)
	}
	f.logger.Debug("HTTP timeouts",
		zap.Duration("write_timeout", serverCfg.WriteTimeout),
		zap.Duration("upstream_budget", budget))

	recorder := f.recorder
	if !serverCfg.MetricsEnabled {
		recorder = nil
	}

	router, err := web.NewRouter(f.classifier, recorder, serverCfg, f.logger)
	if err != nil {
		return nil, err
	}

	return web.NewServer(router, serverCfg, f.logger), nil
}
