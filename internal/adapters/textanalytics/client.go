package textanalytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mikey/cekfakta-ai/internal/core"
	"go.uber.org/zap"
)

const (
	sentimentPath = "/text/analytics/v3.1/sentiment"
	languagesPath = "/text/analytics/v3.1/languages"

	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

	// Text Analytics reports undetectable text with this ISO name
	unknownLanguage = "(Unknown)"

	maxErrorBody = 4 << 10
)

// errUnsupportedLanguage is returned for documents whose language the sentiment model lacks
var errUnsupportedLanguage = errors.New("unsupported language")

// Client calls the Azure AI Language (Text Analytics v3.1) REST API.
// It implements both core.SentimentAnalyzer and core.LanguageDetector.
type Client struct {
	httpClient   *http.Client
	endpoint     string
	apiKey       string
	modelVersion string
	logger       *zap.Logger
}

// NewClient creates a new Text Analytics client
func NewClient(httpClient *http.Client, endpoint, apiKey, modelVersion string, logger *zap.Logger) *Client {
	return &Client{
		httpClient:   httpClient,
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiKey:       apiKey,
		modelVersion: modelVersion,
		logger:       logger,
	}
}

type document struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Language    string `json:"language,omitempty"`
	CountryHint string `json:"countryHint,omitempty"`
}

type documentsRequest struct {
	Documents []document `json:"documents"`
}

type documentError struct {
	ID    string `json:"id"`
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		InnerError *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"innererror,omitempty"`
	} `json:"error"`
}

type sentimentResponse struct {
	Documents []struct {
		ID               string `json:"id"`
		Sentiment        string `json:"sentiment"`
		ConfidenceScores struct {
			Positive float64 `json:"positive"`
			Neutral  float64 `json:"neutral"`
			Negative float64 `json:"negative"`
		} `json:"confidenceScores"`
	} `json:"documents"`
	Errors       []documentError `json:"errors"`
	ModelVersion string          `json:"modelVersion"`
}

type languagesResponse struct {
	Documents []struct {
		ID               string `json:"id"`
		DetectedLanguage struct {
			Name            string  `json:"name"`
			ISO6391Name     string  `json:"iso6391Name"`
			ConfidenceScore float64 `json:"confidenceScore"`
		} `json:"detectedLanguage"`
	} `json:"documents"`
	Errors       []documentError `json:"errors"`
	ModelVersion string          `json:"modelVersion"`
}

// AnalyzeSentiment returns the document sentiment of text
func (c *Client) AnalyzeSentiment(ctx context.Context, text, language string) (*core.SentimentResult, error) {
	res, err := c.analyzeSentiment(ctx, text, language)
	if errors.Is(err, errUnsupportedLanguage) && language != "" {
		// The service falls back to its default language when none is given
		c.logger.Debug("Sentiment language unsupported, retrying without language",
			zap.String("language", language))
		res, err = c.analyzeSentiment(ctx, text, "")
	}
	return res, err
}

func (c *Client) analyzeSentiment(ctx context.Context, text, language string) (*core.SentimentResult, error) {
	var resp sentimentResponse
	req := documentsRequest{Documents: []document{{ID: "1", Text: text, Language: language}}}
	if err := c.postJSON(ctx, sentimentPath, req, &resp); err != nil {
		return nil, err
	}
	if err := documentErr(resp.Errors); err != nil {
		return nil, err
	}
	if len(resp.Documents) == 0 {
		return nil, fmt.Errorf("%w: sentiment response has no documents", core.ErrUpstreamFormat)
	}

	doc := resp.Documents[0]
	label, ok := core.ParseSentiment(doc.Sentiment)
	if !ok {
		return nil, fmt.Errorf("%w: unknown sentiment %q", core.ErrUpstreamFormat, doc.Sentiment)
	}

	c.logger.Debug("Sentiment analyzed",
		zap.String("sentiment", doc.Sentiment),
		zap.String("model_version", resp.ModelVersion))

	return &core.SentimentResult{
		Label: label,
		Scores: core.SentimentScores{
			Positive: doc.ConfidenceScores.Positive,
			Neutral:  doc.ConfidenceScores.Neutral,
			Negative: doc.ConfidenceScores.Negative,
		},
	}, nil
}

// DetectLanguage returns the primary language of text
func (c *Client) DetectLanguage(ctx context.Context, text string) (*core.Language, error) {
	var resp languagesResponse
	req := documentsRequest{Documents: []document{{ID: "1", Text: text}}}
	if err := c.postJSON(ctx, languagesPath, req, &resp); err != nil {
		return nil, err
	}
	if err := documentErr(resp.Errors); err != nil {
		return nil, err
	}
	if len(resp.Documents) == 0 {
		return nil, fmt.Errorf("%w: language response has no documents", core.ErrUpstreamFormat)
	}

	detected := resp.Documents[0].DetectedLanguage
	if detected.ISO6391Name == "" || detected.ISO6391Name == unknownLanguage {
		return nil, fmt.Errorf("%w: language could not be detected", core.ErrUpstreamFormat)
	}

	c.logger.Debug("Language detected",
		zap.String("language", detected.ISO6391Name),
		zap.Float64("confidence", detected.ConfidenceScore))

	return &core.Language{
		Code: strings.ToLower(detected.ISO6391Name),
		Name: detected.Name,
	}, nil
}

// postJSON sends input to path and decodes the JSON answer into output.
// Non-2xx answers are reported as ErrUpstreamUnavailable, undecodable bodies as ErrUpstreamFormat.
func (c *Client) postJSON(ctx context.Context, path string, input, output interface{}) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	endpoint := c.endpoint + path
	if c.modelVersion != "" {
		endpoint += "?model-version=" + url.QueryEscape(c.modelVersion)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(subscriptionKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("text analytics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: text analytics returned status %d: %s",
			core.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(preview)))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(respBody, output); err != nil {
		c.logger.Error("Failed to unmarshal text analytics response",
			zap.String("path", path),
			zap.Error(err),
			zap.Int("raw_response_length", len(respBody)))
		return fmt.Errorf("%w: failed to unmarshal response: %v", core.ErrUpstreamFormat, err)
	}

	return nil
}

// documentErr converts the first per-document error into a Go error
func documentErr(errs []documentError) error {
	if len(errs) == 0 {
		return nil
	}
	e := errs[0].Error
	code, message := e.Code, e.Message
	if e.InnerError != nil {
		code, message = e.InnerError.Code, e.InnerError.Message
	}
	if code == "UnsupportedLanguageCode" {
		return fmt.Errorf("%w: %s", errUnsupportedLanguage, message)
	}
	return fmt.Errorf("%w: document error %s: %s", core.ErrUpstreamFormat, code, message)
}
