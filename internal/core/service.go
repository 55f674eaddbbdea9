package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikey/cekfakta-ai/internal/keywords"
	"github.com/mikey/cekfakta-ai/internal/utils"
)

// FallbackExplanation is reported when the model answer could not be used
const FallbackExplanation = "The model did not return a usable classification for this text."

// MetricsRecorder receives classification and upstream call observations
type MetricsRecorder interface {
	ObserveClassification(outcome string, category RiskCategory, elapsed time.Duration)
	ObserveUpstreamCall(service string, err error, elapsed time.Duration)
}

// ServiceConfig holds the tunables of the classifier service
type ServiceConfig struct {
	MaxTextLength        int
	DefaultLanguage      string
	UpstreamTimeout      time.Duration
	Retries              uint64
	RetryInitialInterval time.Duration
	CacheEnabled         bool
	CacheTTL             time.Duration
}

// Deadline bounds one whole classification
func (c ServiceConfig) Deadline() time.Duration {
	return UpstreamBudget(c.UpstreamTimeout, c.Retries, c.RetryInitialInterval)
}

// UpstreamBudget is the worst case one classification spends upstream:
// language detection followed by the concurrent generative and sentiment
// calls, each allowed every retry and the longest randomized backoff wait.
func UpstreamBudget(timeout time.Duration, retries uint64, initialInterval time.Duration) time.Duration {
	if initialInterval <= 0 {
		initialInterval = backoff.DefaultInitialInterval
	}

	var waits time.Duration
	interval := initialInterval
	for i := uint64(0); i < retries; i++ {
		waits += time.Duration(float64(interval) * (1 + backoff.DefaultRandomizationFactor))
		interval = time.Duration(float64(interval) * backoff.DefaultMultiplier)
		if interval > backoff.DefaultMaxInterval {
			interval = backoff.DefaultMaxInterval
		}
	}

	perStep := timeout*time.Duration(retries+1) + waits
	return 2 * perStep
}

// ClassifierService is the core service that turns text into an AnalysisResult
type ClassifierService struct {
	llmClient       LLMClient
	sentiment       SentimentAnalyzer
	languages       LanguageDetector
	cache           CacheRepository
	keywords        *keywords.Checker
	textProcessor   *utils.TextProcessor
	metrics         MetricsRecorder
	logger          *zap.Logger
	cfg             ServiceConfig
	defaultLanguage Language
}

// NewClassifierService creates a new classifier service.
// languages, cache and metrics may be nil.
func NewClassifierService(
	llmClient LLMClient,
	sentiment SentimentAnalyzer,
	languages LanguageDetector,
	cache CacheRepository,
	keywordChecker *keywords.Checker,
	textProcessor *utils.TextProcessor,
	metrics MetricsRecorder,
	logger *zap.Logger,
	cfg ServiceConfig,
) (*ClassifierService, error) {
	def, err := LanguageFromCode(cfg.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("%w: default language: %v", ErrConfiguration, err)
	}
	if cfg.UpstreamTimeout <= 0 {
		return nil, fmt.Errorf("%w: upstream timeout must be positive", ErrConfiguration)
	}
	if keywordChecker == nil {
		keywordChecker = keywords.NewChecker(nil, nil)
	}
	if cache == nil {
		cfg.CacheEnabled = false
	}

	return &ClassifierService{
		llmClient:       llmClient,
		sentiment:       sentiment,
		languages:       languages,
		cache:           cache,
		keywords:        keywordChecker,
		textProcessor:   textProcessor,
		metrics:         metrics,
		logger:          logger,
		cfg:             cfg,
		defaultLanguage: def,
	}, nil
}

// Classify analyzes one request.
//
// On ErrUpstreamFormat the returned result is the Unknown fallback and is non-nil,
// so callers can degrade gracefully. On any other error the result is nil.
func (s *ClassifierService) Classify(ctx context.Context, req *AnalysisRequest) (*AnalysisResult, error) {
	start := time.Now()

	text := s.textProcessor.Normalize(req.Text)
	if text == "" {
		s.observe("invalid", CategoryUnknown, start)
		return nil, fmt.Errorf("%w: text must not be empty", ErrInvalidInput)
	}
	if s.cfg.MaxTextLength > 0 && s.textProcessor.RuneCount(text) > s.cfg.MaxTextLength {
		s.observe("invalid", CategoryUnknown, start)
		return nil, fmt.Errorf("%w: text is too long (max %d characters)", ErrInvalidInput, s.cfg.MaxTextLength)
	}

	s.logger.Debug("Classifying text",
		zap.String("text_preview", s.textProcessor.TruncateRunes(text, 80)),
		zap.String("language_hint", req.LanguageHint))

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Deadline())
	defer cancel()

	hint := strings.ToLower(strings.TrimSpace(req.LanguageHint))
	key := CacheKey(hint, text)
	if s.cfg.CacheEnabled {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", key))
			s.observe("cache_hit", entry.Result.RiskCategory, start)
			return entry.Result, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("Cache lookup failed", zap.Error(err))
		}
	}

	lang, err := s.resolveLanguage(ctx, text, hint)
	if err != nil {
		s.observe("invalid", CategoryUnknown, start)
		return nil, err
	}

	var (
		generation *Generation
		formatErr  error
		sentiment  *SentimentResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gen, err := s.generate(gctx, text, lang)
		if errors.Is(err, ErrUpstreamFormat) {
			formatErr = err
			return nil
		}
		generation = gen
		return err
	})
	g.Go(func() error {
		res, err := s.analyzeSentiment(gctx, text, lang)
		sentiment = res
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Debug("Classification abandoned by caller", zap.Error(err))
			s.observe("canceled", CategoryUnknown, start)
		} else {
			s.logger.Error("Classification failed", zap.Error(err))
			s.observe("unavailable", CategoryUnknown, start)
		}
		return nil, err
	}

	model := ""
	if generation != nil {
		model = generation.ModelUsed
		var verdict *Verdict
		verdict, formatErr = ParseVerdict(generation.Text)
		if formatErr == nil {
			result := buildResult(verdict, sentiment, lang, model)
			s.store(ctx, key, result)
			s.observe("ok", result.RiskCategory, start)
			s.logger.Info("Text classified",
				zap.String("category", string(result.RiskCategory)),
				zap.Float64("confidence", result.Confidence),
				zap.String("sentiment", string(result.Sentiment)),
				zap.String("language", lang.Code),
				zap.String("processing_id", generation.ProcessingID),
				zap.Duration("elapsed", time.Since(start)))
			return result, nil
		}
		s.logger.Warn("Model answer did not match the response schema",
			zap.Error(formatErr),
			zap.String("raw_response", s.textProcessor.TruncateRunes(generation.Text, 200)))
	} else {
		s.logger.Warn("Generative endpoint returned no usable answer", zap.Error(formatErr))
	}

	s.observe("degraded", CategoryUnknown, start)
	return FallbackResult(sentiment, lang, model), formatErr
}

// CacheKey derives the cache key for a normalized text and language hint
func CacheKey(languageHint, text string) string {
	sum := sha256.Sum256([]byte(languageHint + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// FallbackResult is the deterministic low-confidence result used when the
// generative answer cannot be parsed
func FallbackResult(sentiment *SentimentResult, lang Language, model string) *AnalysisResult {
	result := &AnalysisResult{
		RiskCategory:     CategoryUnknown,
		Explanation:      FallbackExplanation,
		Sentiment:        SentimentNeutral,
		Confidence:       0,
		Indicators:       []string{},
		DetectedLanguage: lang.Name,
		ModelUsed:        model,
	}
	if sentiment != nil {
		result.Sentiment = sentiment.Label
		result.SentimentScores = roundScores(sentiment.Scores)
	}
	return result
}

func buildResult(v *Verdict, sentiment *SentimentResult, lang Language, model string) *AnalysisResult {
	return &AnalysisResult{
		RiskCategory:     v.Category,
		Explanation:      v.Explanation,
		Sentiment:        sentiment.Label,
		Confidence:       v.Confidence,
		Indicators:       v.Indicators,
		SentimentScores:  roundScores(sentiment.Scores),
		DetectedLanguage: lang.Name,
		ModelUsed:        model,
	}
}

// resolveLanguage picks the answer language: the hint, else detection, else the default
func (s *ClassifierService) resolveLanguage(ctx context.Context, text, hint string) (Language, error) {
	if hint != "" {
		lang, err := LanguageFromCode(hint)
		if err != nil {
			return Language{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return lang, nil
	}

	if s.languages == nil {
		return s.defaultLanguage, nil
	}

	var detected *Language
	err := s.call(ctx, "language", func(callCtx context.Context) error {
		var err error
		detected, err = s.languages.DetectLanguage(callCtx, text)
		return err
	})
	if err != nil {
		s.logger.Warn("Language detection failed, using default language",
			zap.Error(err),
			zap.String("default_language", s.defaultLanguage.Code))
		return s.defaultLanguage, nil
	}

	lang, err := LanguageFromCode(detected.Code)
	if err != nil {
		s.logger.Debug("Detected language not recognised, using default language",
			zap.String("detected", detected.Code))
		return s.defaultLanguage, nil
	}

	// Short Indonesian bait messages are often reported as English
	if lang.Code == "en" && s.keywords.Matches(text) {
		s.logger.Debug("Overriding detected language", zap.String("from", "en"), zap.String("to", "id"))
		return LanguageFromCode("id")
	}

	return lang, nil
}

func (s *ClassifierService) generate(ctx context.Context, text string, lang Language) (*Generation, error) {
	req := &GenerationRequest{
		SystemPrompt: SystemPrompt(lang.Name),
		UserText:     text,
	}

	var gen *Generation
	err := s.call(ctx, "generative", func(callCtx context.Context) error {
		var err error
		gen, err = s.llmClient.Generate(callCtx, req)
		return err
	})
	return gen, err
}

func (s *ClassifierService) analyzeSentiment(ctx context.Context, text string, lang Language) (*SentimentResult, error) {
	var res *SentimentResult
	err := s.call(ctx, "sentiment", func(callCtx context.Context) error {
		var err error
		res, err = s.sentiment.AnalyzeSentiment(callCtx, text, lang.Code)
		return err
	})
	if errors.Is(err, ErrUpstreamFormat) {
		// No fallback exists for sentiment, so a malformed answer counts as unavailable
		err = fmt.Errorf("%w: sentiment: %v", ErrUpstreamUnavailable, err)
	}
	return res, err
}

// call runs fn with a bounded timeout per attempt and retries upstream
// unavailability with exponential backoff
func (s *ClassifierService) call(ctx context.Context, service string, fn func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	if s.cfg.RetryInitialInterval > 0 {
		b.InitialInterval = s.cfg.RetryInitialInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, s.cfg.Retries), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
		defer cancel()

		start := time.Now()
		err := fn(callCtx)
		if err != nil && !errors.Is(err, ErrUpstreamFormat) {
			err = Unavailable(service, err)
		}
		if s.metrics != nil {
			s.metrics.ObserveUpstreamCall(service, err, time.Since(start))
		}

		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrUpstreamUnavailable) && ctx.Err() == nil:
			s.logger.Warn("Upstream call failed",
				zap.String("service", service),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		default:
			return backoff.Permanent(err)
		}
	}, policy)
	if err != nil && !errors.Is(err, ErrUpstreamFormat) {
		// Retry hands back a bare ctx.Err() when the caller goes away between attempts
		err = Unavailable(service, err)
	}
	return err
}

func (s *ClassifierService) store(ctx context.Context, key string, result *AnalysisResult) {
	if !s.cfg.CacheEnabled {
		return
	}
	now := time.Now()
	entry := &CacheEntry{
		Key:       key,
		Result:    result,
		StoredAt:  now,
		ExpiresAt: now.Add(s.cfg.CacheTTL),
	}
	if err := s.cache.Set(ctx, entry); err != nil {
		s.logger.Error("Failed to update cache", zap.Error(err))
	}
}

func (s *ClassifierService) observe(outcome string, category RiskCategory, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveClassification(outcome, category, time.Since(start))
	}
}

func roundScores(in SentimentScores) SentimentScores {
	return SentimentScores{
		Positive: round2(in.Positive),
		Neutral:  round2(in.Neutral),
		Negative: round2(in.Negative),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
