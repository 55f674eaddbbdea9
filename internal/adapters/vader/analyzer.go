package vader

import (
	"context"

	"github.com/jonreiter/govader"
	"github.com/mikey/cekfakta-ai/internal/core"
	"go.uber.org/zap"
)

// DefaultThreshold is the compound score beyond which text counts as positive or negative
const DefaultThreshold = 0.20

// Analyzer is an offline core.SentimentAnalyzer backed by the VADER lexicon.
// The lexicon is English, so other languages mostly come out neutral.
type Analyzer struct {
	analyzer  *govader.SentimentIntensityAnalyzer
	threshold float64
	logger    *zap.Logger
}

// NewAnalyzer creates a new VADER analyzer
func NewAnalyzer(threshold float64, logger *zap.Logger) *Analyzer {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &Analyzer{
		analyzer:  govader.NewSentimentIntensityAnalyzer(),
		threshold: threshold,
		logger:    logger,
	}
}

// AnalyzeSentiment scores text with VADER. The language is ignored.
func (a *Analyzer) AnalyzeSentiment(ctx context.Context, text, language string) (*core.SentimentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := a.analyzer.PolarityScores(text)

	label := core.SentimentNeutral
	switch {
	case scores.Compound >= a.threshold:
		label = core.SentimentPositive
	case scores.Compound <= -a.threshold:
		label = core.SentimentNegative
	}

	a.logger.Debug("VADER sentiment",
		zap.Float64("compound", scores.Compound),
		zap.String("label", string(label)))

	return &core.SentimentResult{
		Label: label,
		Scores: core.SentimentScores{
			Positive: scores.Positive,
			Neutral:  scores.Neutral,
			Negative: scores.Negative,
		},
	}, nil
}
