package core

import (
	"context"
)

// LLMClient defines the interface for interacting with generative-text services
type LLMClient interface {
	// Generate sends the prompt and returns the model's raw text answer
	Generate(ctx context.Context, req *GenerationRequest) (*Generation, error)
}

// SentimentAnalyzer defines the interface for sentiment analysis services
type SentimentAnalyzer interface {
	// AnalyzeSentiment returns the sentiment label and scores for the text
	AnalyzeSentiment(ctx context.Context, text, language string) (*SentimentResult, error)
}

// LanguageDetector defines the interface for language detection services
type LanguageDetector interface {
	// DetectLanguage returns the primary language of the text
	DetectLanguage(ctx context.Context, text string) (*Language, error)
}

// CacheRepository defines the interface for caching analysis results
type CacheRepository interface {
	// Get retrieves a cached entry, ErrCacheMiss when absent or expired
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
