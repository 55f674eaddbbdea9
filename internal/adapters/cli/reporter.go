package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/mikey/cekfakta-ai/internal/ports"
	"github.com/mikey/cekfakta-ai/internal/utils"
)

// Reporter classifies one text and prints the outcome
type Reporter struct {
	classifier    ports.Classifier
	textProcessor *utils.TextProcessor
	out           io.Writer
	logger        *zap.Logger
	jsonOutput    bool
	verbose       bool
}

// NewReporter creates a new CLI reporter
func NewReporter(
	classifier ports.Classifier,
	textProcessor *utils.TextProcessor,
	out io.Writer,
	logger *zap.Logger,
	jsonOutput bool,
	verbose bool,
) *Reporter {
	return &Reporter{
		classifier:    classifier,
		textProcessor: textProcessor,
		out:           out,
		logger:        logger,
		jsonOutput:    jsonOutput,
		verbose:       verbose,
	}
}

type report struct {
	Success  bool                 `json:"success"`
	Degraded bool                 `json:"degraded,omitempty"`
	Error    string               `json:"error,omitempty"`
	Result   *core.AnalysisResult `json:"result,omitempty"`
}

// Run classifies req and writes the result.
// A fallback result caused by ErrUpstreamFormat is printed and not treated as a failure.
func (r *Reporter) Run(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisResult, error) {
	r.logger.Debug("Classifying text", zap.Int("length", r.textProcessor.RuneCount(req.Text)))

	if !r.jsonOutput {
		r.printInput(req)
	}

	start := time.Now()
	result, err := r.classifier.Classify(ctx, req)
	elapsed := time.Since(start)

	degraded := false
	if err != nil {
		if !errors.Is(err, core.ErrUpstreamFormat) || result == nil {
			r.logger.Error("Failed to classify text", zap.Error(err))
			if r.jsonOutput {
				return nil, errors.Join(err, r.writeJSON(report{Success: false, Error: err.Error()}))
			}
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return nil, err
		}
		r.logger.Warn("Model answer unusable, printing fallback result", zap.Error(err))
		degraded = true
	}

	if r.jsonOutput {
		return result, r.writeJSON(report{Success: true, Degraded: degraded, Result: result})
	}

	r.printResult(result, degraded, elapsed)
	return result, nil
}

func (r *Reporter) printInput(req *core.AnalysisRequest) {
	fmt.Fprintf(r.out, "\n=== Input ===\n")
	fmt.Fprintf(r.out, "Length: %d characters\n", r.textProcessor.RuneCount(req.Text))
	if req.LanguageHint != "" {
		fmt.Fprintf(r.out, "Language hint: %s\n", req.LanguageHint)
	}
	if r.verbose {
		fmt.Fprintf(r.out, "\nText preview:\n%s\n", r.textProcessor.TruncateRunes(req.Text, 500))
	}
}

func (r *Reporter) printResult(result *core.AnalysisResult, degraded bool, elapsed time.Duration) {
	fmt.Fprintf(r.out, "\n=== Results ===\n")
	if degraded {
		fmt.Fprintf(r.out, "Warning: the model answer could not be interpreted, showing a fallback result\n")
	}
	fmt.Fprintf(r.out, "Category: %s\n", result.RiskCategory)
	fmt.Fprintf(r.out, "Confidence: %.2f\n", result.Confidence)
	fmt.Fprintf(r.out, "Sentiment: %s (positive %.2f, neutral %.2f, negative %.2f)\n",
		result.Sentiment,
		result.SentimentScores.Positive,
		result.SentimentScores.Neutral,
		result.SentimentScores.Negative)
	fmt.Fprintf(r.out, "Language: %s\n", result.DetectedLanguage)
	fmt.Fprintf(r.out, "Explanation: %s\n", result.Explanation)
	if len(result.Indicators) > 0 {
		fmt.Fprintf(r.out, "Indicators: %s\n", strings.Join(result.Indicators, "; "))
	}
	if result.ModelUsed != "" {
		fmt.Fprintf(r.out, "Model used: %s\n", result.ModelUsed)
	}
	fmt.Fprintf(r.out, "Processing time: %v\n", elapsed.Round(time.Millisecond))
}

func (r *Reporter) writeJSON(v report) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}
