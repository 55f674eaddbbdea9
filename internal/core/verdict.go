package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Verdict is a validated classification answer from the generative endpoint
type Verdict struct {
	Category    RiskCategory
	Confidence  float64
	Explanation string
	Indicators  []string
}

// Accepted keys, first match wins. The Indonesian keys are what older prompts produced.
var (
	categoryKeys    = []string{"category", "risk_category", "kategori"}
	confidenceKeys  = []string{"confidence", "confidence_score"}
	explanationKeys = []string{"explanation", "reason", "penjelasan"}
	indicatorKeys   = []string{"indicators", "risk_indicators", "indikator_bahaya"}
)

var confidenceLevels = map[string]float64{
	"high":   0.9,
	"tinggi": 0.9,
	"medium": 0.6,
	"sedang": 0.6,
	"low":    0.3,
	"rendah": 0.3,
}

// ParseVerdict validates the model answer against the response schema.
// Any deviation is reported as ErrUpstreamFormat.
func ParseVerdict(raw string) (*Verdict, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return nil, err
	}

	var categoryLabel string
	if err := decodeField(obj, categoryKeys, &categoryLabel, true); err != nil {
		return nil, err
	}
	category, ok := ParseRiskCategory(categoryLabel)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrUpstreamFormat, categoryLabel)
	}

	confidenceRaw, ok := lookup(obj, confidenceKeys)
	if !ok {
		return nil, fmt.Errorf("%w: missing confidence", ErrUpstreamFormat)
	}
	confidence, err := parseConfidence(confidenceRaw)
	if err != nil {
		return nil, err
	}

	var explanation string
	if err := decodeField(obj, explanationKeys, &explanation, true); err != nil {
		return nil, err
	}
	explanation = strings.TrimSpace(explanation)
	if explanation == "" {
		return nil, fmt.Errorf("%w: empty explanation", ErrUpstreamFormat)
	}

	indicators := []string{}
	if err := decodeField(obj, indicatorKeys, &indicators, false); err != nil {
		return nil, err
	}

	return &Verdict{
		Category:    category,
		Confidence:  confidence,
		Explanation: explanation,
		Indicators:  cleanIndicators(indicators),
	}, nil
}

// extractObject finds the JSON object in the answer: either the whole text or the
// span between the first '{' and the last '}', which also strips code fences.
func extractObject(raw string) (map[string]json.RawMessage, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUpstreamFormat)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, nil
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrUpstreamFormat)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %v", ErrUpstreamFormat, err)
	}
	return obj, nil
}

func lookup(obj map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func decodeField(obj map[string]json.RawMessage, keys []string, dst any, required bool) error {
	raw, ok := lookup(obj, keys)
	if !ok {
		if required {
			return fmt.Errorf("%w: missing %s", ErrUpstreamFormat, keys[0])
		}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: invalid %s: %v", ErrUpstreamFormat, keys[0], err)
	}
	return nil
}

func parseConfidence(raw json.RawMessage) (float64, error) {
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var label string
		if err := json.Unmarshal(raw, &label); err != nil {
			return 0, fmt.Errorf("%w: confidence is neither number nor string", ErrUpstreamFormat)
		}
		label = strings.ToLower(strings.TrimSpace(label))
		if level, ok := confidenceLevels[label]; ok {
			return level, nil
		}
		value, err = strconv.ParseFloat(label, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: unrecognised confidence %q", ErrUpstreamFormat, label)
		}
	}
	if math.IsNaN(value) || value < 0 || value > 1 {
		return 0, fmt.Errorf("%w: confidence %v outside [0,1]", ErrUpstreamFormat, value)
	}
	return value, nil
}

func cleanIndicators(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
