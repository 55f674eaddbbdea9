package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mikey/cekfakta-ai/internal/core"
	"go.uber.org/zap"
)

// Stopper is implemented by caches holding background tasks or connections
type Stopper interface {
	Stop()
}

// janitor runs a cache cleanup function on a fixed period until stopped
type janitor struct {
	freq     time.Duration
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newJanitor(freq time.Duration, logger *zap.Logger) *janitor {
	return &janitor{
		freq:   freq,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// start runs cleanup in the background. A non-positive frequency disables it.
func (j *janitor) start(cleanup func(context.Context) error) {
	if j.freq <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(j.freq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := cleanup(context.Background()); err != nil {
					j.logger.Error("Failed to clean up cache", zap.Error(err))
				}
			case <-j.stopCh:
				return
			}
		}
	}()
}

func (j *janitor) stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

func encodeResult(result *core.AnalysisResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode cached result: %w", err)
	}
	return string(data), nil
}

func decodeResult(data string) (*core.AnalysisResult, error) {
	var result core.AnalysisResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	if !result.RiskCategory.Valid() {
		return nil, fmt.Errorf("cached result has unknown category %q", result.RiskCategory)
	}
	return &result, nil
}
