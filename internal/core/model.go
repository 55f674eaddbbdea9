package core

import (
	"time"
)

// RiskCategory is the classification label assigned to input text
type RiskCategory string

const (
	CategoryScam     RiskCategory = "Scam"
	CategoryHoax     RiskCategory = "Hoax"
	CategoryGambling RiskCategory = "Gambling"
	CategorySafe     RiskCategory = "Safe"
	CategoryUnknown  RiskCategory = "Unknown"
)

// Sentiment is the coarse emotional tone of the input text
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// AnalysisRequest represents one piece of user-submitted text to classify
type AnalysisRequest struct {
	Text         string `json:"text"`
	LanguageHint string `json:"language,omitempty"`
}

// SentimentScores holds the per-label confidence reported by the sentiment endpoint
type SentimentScores struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// AnalysisResult represents the outcome of classifying one AnalysisRequest
type AnalysisResult struct {
	RiskCategory     RiskCategory    `json:"risk_category"`
	Explanation      string          `json:"explanation"`
	Sentiment        Sentiment       `json:"sentiment"`
	Confidence       float64         `json:"confidence"`
	Indicators       []string        `json:"indicators"`
	SentimentScores  SentimentScores `json:"sentiment_scores"`
	DetectedLanguage string          `json:"detected_language"`
	ModelUsed        string          `json:"model"`
}

// SentimentResult is what a SentimentAnalyzer returns for a piece of text
type SentimentResult struct {
	Label  Sentiment
	Scores SentimentScores
}

// Language is a detected or hinted language
type Language struct {
	Code string // ISO 639-1, lower case
	Name string // English display name
}

// GenerationRequest is a single prompt sent to the generative-text endpoint
type GenerationRequest struct {
	SystemPrompt string
	UserText     string
}

// Generation is the raw text produced by the generative-text endpoint
type Generation struct {
	Text         string
	ModelUsed    string
	ProcessingID string
}

// CacheEntry is a stored AnalysisResult
type CacheEntry struct {
	Key       string
	Result    *AnalysisResult
	StoredAt  time.Time
	ExpiresAt time.Time
}
