package factory

import (
	"fmt"

	"github.com/mikey/cekfakta-ai/internal/config"
	"github.com/mikey/cekfakta-ai/internal/core"
)

// NewServiceConfig builds the classifier tunables from the configuration
func NewServiceConfig(cfg *config.Config, cacheFactory *CacheFactory) (core.ServiceConfig, error) {
	upstream := cfg.GetUpstream()
	analysis := cfg.GetAnalysis()

	ttl, err := cacheFactory.GetCacheTTL()
	if err != nil {
		return core.ServiceConfig{}, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	if upstream.Retries < 0 {
		return core.ServiceConfig{}, fmt.Errorf("%w: upstream.retries must not be negative", core.ErrConfiguration)
	}

	return core.ServiceConfig{
		MaxTextLength:        analysis.MaxTextLength,
		DefaultLanguage:      analysis.DefaultLanguage,
		UpstreamTimeout:      upstream.Timeout,
		Retries:              uint64(upstream.Retries),
		RetryInitialInterval: upstream.RetryInitialInterval,
		CacheEnabled:         cacheFactory.IsCacheEnabled(),
		CacheTTL:             ttl,
	}, nil
}
