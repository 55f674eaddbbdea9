package ports

import (
	"context"

	"github.com/mikey/cekfakta-ai/internal/core"
)

// Classifier defines the interface for classifying submitted text
type Classifier interface {
	// Classify analyzes the request and returns the classification result
	Classify(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisResult, error)
}

// Server defines the interface for a long-running front-end
type Server interface {
	// Start starts serving and blocks until the server stops
	Start() error

	// Stop gracefully stops the server
	Stop(ctx context.Context) error
}
