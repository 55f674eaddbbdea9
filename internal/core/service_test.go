package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/cekfakta-ai/internal/keywords"
	"github.com/mikey/cekfakta-ai/internal/utils"
)

type stubLLM struct {
	answer  string
	model   string
	err     error
	block   bool
	failFor int32

	calls   atomic.Int32
	mu      sync.Mutex
	prompts []string
}

func (s *stubLLM) Generate(ctx context.Context, req *GenerationRequest) (*Generation, error) {
	n := s.calls.Add(1)
	s.mu.Lock()
	s.prompts = append(s.prompts, req.SystemPrompt)
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if n <= s.failFor {
		return nil, errors.New("connection reset by peer")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &Generation{Text: s.answer, ModelUsed: s.model, ProcessingID: "chatcmpl-1"}, nil
}

func (s *stubLLM) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

type stubSentiment struct {
	result *SentimentResult
	err    error
	calls  atomic.Int32
}

func (s *stubSentiment) AnalyzeSentiment(ctx context.Context, text, language string) (*SentimentResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubDetector struct {
	code  string
	err   error
	block bool
}

func (s *stubDetector) DetectLanguage(ctx context.Context, text string) (*Language, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &Language{Code: s.code}, nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*CacheEntry)}
}

func (c *mapCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return e, nil
}

func (c *mapCache) Set(ctx context.Context, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Key] = entry
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *mapCache) Cleanup(ctx context.Context) error { return nil }

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *recordingMetrics) ObserveClassification(outcome string, category RiskCategory, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) ObserveUpstreamCall(service string, err error, elapsed time.Duration) {}

const scamAnswer = `{"category":"Scam","confidence":0.95,"explanation":"Pesan menjanjikan hadiah dan meminta klik tautan.","indicators":["hadiah besar","tautan mencurigakan"]}`

const safeAnswer = `{"category":"Safe","confidence":0.9,"explanation":"A plain meeting reminder.","indicators":[]}`

func positiveSentiment() *SentimentResult {
	return &SentimentResult{
		Label:  SentimentPositive,
		Scores: SentimentScores{Positive: 0.812, Neutral: 0.15, Negative: 0.038},
	}
}

func testConfig() ServiceConfig {
	return ServiceConfig{
		MaxTextLength:        1000,
		DefaultLanguage:      "id",
		UpstreamTimeout:      time.Second,
		Retries:              0,
		RetryInitialInterval: time.Millisecond,
	}
}

func newTestService(t *testing.T, llm LLMClient, sentiment SentimentAnalyzer, detector LanguageDetector, cache CacheRepository, metrics MetricsRecorder, cfg ServiceConfig) *ClassifierService {
	t.Helper()
	logger := zap.NewNop()
	if metrics == nil {
		metrics = &recordingMetrics{}
	}
	svc, err := NewClassifierService(
		llm,
		sentiment,
		detector,
		cache,
		keywords.NewChecker([]string{"anda", "hadiah", "rekening", "jutaan"}, logger),
		utils.NewTextProcessor(logger),
		metrics,
		logger,
		cfg,
	)
	require.NoError(t, err)
	return svc
}

func TestClassify_Scam(t *testing.T) {
	llm := &stubLLM{answer: scamAnswer, model: "gpt-4o"}
	sentiment := &stubSentiment{result: positiveSentiment()}
	svc := newTestService(t, llm, sentiment, &stubDetector{code: "id"}, nil, nil, testConfig())

	result, err := svc.Classify(context.Background(), &AnalysisRequest{
		Text: "Selamat! Anda menang hadiah 50 juta, klik link ini",
	})
	require.NoError(t, err)

	assert.Equal(t, CategoryScam, result.RiskCategory)
	assert.GreaterOrEqual(t, result.Confidence, 0.7)
	assert.Equal(t, []string{"hadiah besar", "tautan mencurigakan"}, result.Indicators)
	assert.Equal(t, SentimentPositive, result.Sentiment)
	assert.Equal(t, SentimentScores{Positive: 0.81, Neutral: 0.15, Negative: 0.04}, result.SentimentScores)
	assert.Equal(t, "Indonesian", result.DetectedLanguage)
	assert.Equal(t, "gpt-4o", result.ModelUsed)
	assert.Contains(t, llm.lastPrompt(), "written in Indonesian")
}

func TestClassify_Safe(t *testing.T) {
	llm := &stubLLM{answer: safeAnswer, model: "gpt-4o"}
	sentiment := &stubSentiment{result: &SentimentResult{Label: SentimentNeutral, Scores: SentimentScores{Neutral: 1}}}
	svc := newTestService(t, llm, sentiment, &stubDetector{code: "id"}, nil, nil, testConfig())

	result, err := svc.Classify(context.Background(), &AnalysisRequest{Text: "Jangan lupa meeting besok jam 10"})
	require.NoError(t, err)

	assert.Equal(t, CategorySafe, result.RiskCategory)
	assert.Equal(t, SentimentNeutral, result.Sentiment)
	assert.NotEmpty(t, result.Explanation)
}

func TestClassify_InvalidInputMakesNoCalls(t *testing.T) {
	llm := &stubLLM{answer: safeAnswer}
	sentiment := &stubSentiment{result: positiveSentiment()}
	metrics := &recordingMetrics{}
	svc := newTestService(t, llm, sentiment, &stubDetector{code: "id"}, nil, metrics, testConfig())

	for _, text := range []string{"", "   \n\t", strings.Repeat("a", 1001)} {
		result, err := svc.Classify(context.Background(), &AnalysisRequest{Text: text})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err := svc.Classify(context.Background(), &AnalysisRequest{Text: "halo", LanguageHint: "!!"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, llm.calls.Load())
	assert.Zero(t, sentiment.calls.Load())
	assert.Equal(t, []string{"invalid", "invalid", "invalid", "invalid"}, metrics.outcomes)
}

func TestClassify_MaxLengthCountsCharacters(t *testing.T) {
	llm := &stubLLM{answer: safeAnswer}
	svc := newTestService(t, llm, &stubSentiment{result: positiveSentiment()}, nil, nil, nil, testConfig())

	// 1000 two-byte characters is within the limit
	_, err := svc.Classify(context.Background(), &AnalysisRequest{Text: strings.Repeat("\u00e9", 1000)})
	assert.NoError(t, err)
}

func TestClassify_MalformedAnswerDegrades(t *testing.T) {
	llm := &stubLLM{answer: "I think this is probably a scam.", model: "gpt-4o"}
	sentiment := &stubSentiment{result: positiveSentiment()}
	metrics := &recordingMetrics{}
	cache := newMapCache()
	cfg := testConfig()
	cfg.CacheEnabled = true
	cfg.CacheTTL = time.Hour
	svc := newTestService(t, llm, sentiment, &stubDetector{code: "id"}, cache, metrics, cfg)

	result, err := svc.Classify(context.Background(), &AnalysisRequest{Text: "Klik link ini sekarang"})
	assert.ErrorIs(t, err, ErrUpstreamFormat)
	require.NotNil(t, result)

	assert.Equal(t, CategoryUnknown, result.RiskCategory)
	assert.Zero(t, result.Confidence)
	assert.Equal(t, FallbackExplanation, result.Explanation)
	assert.Equal(t, SentimentPositive, result.Sentiment)
	assert.Equal(t, "gpt-4o", result.ModelUsed)
	assert.Equal(t, []string{"degraded"}, metrics.outcomes)
	assert.Empty(t, cache.entries, "fallback results must not be cached")
}

func TestClassify_TimeoutIsBounded(t *testing.T) {
	llm := &stubLLM{block: true}
	cfg := testConfig()
	cfg.UpstreamTimeout = 50 * time.Millisecond
	svc := newTestService(t, llm, &stubSentiment{result: positiveSentiment()}, nil, nil, nil, cfg)

	start := time.Now()
	result, err := svc.Classify(context.Background(), &AnalysisRequest{Text: "Jangan lupa meeting besok jam 10"})
	elapsed := time.Since(start)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, time.Second)
}

func TestClassify_WholeAnalysisStaysWithinDeadline(t *testing.T) {
	llm := &stubLLM{block: true}
	cfg := testConfig()
	cfg.UpstreamTimeout = 40 * time.Millisecond
	cfg.Retries = 1
	cfg.RetryInitialInterval = 2 * time.Millisecond
	svc := newTestService(t, llm, &stubSentiment{result: positiveSentiment()}, &stubDetector{block: true}, nil, nil, cfg)

	start := time.Now()
	result, err := svc.Classify(context.Background(), &AnalysisRequest{Text: "Selamat! Anda menang hadiah"})
	elapsed := time.Since(start)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Less(t, elapsed, cfg.Deadline()+100*time.Millisecond)
	assert.GreaterOrEqual(t, llm.calls.Load(), int32(1))
}

func TestClassify_CallerGoneDuringBackoff(t *testing.T) {
	llm := &stubLLM{failFor: 10}
	metrics := &recordingMetrics{}
	cfg := testConfig()
	cfg.Retries = 1
	cfg.RetryInitialInterval = 2 * time.Second
	svc := newTestService(t, llm, &stubSentiment{result: positiveSentiment()}, nil, nil, metrics, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	result, err := svc.Classify(ctx, &AnalysisRequest{Text: "Jangan lupa meeting besok jam 10"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(1), llm.calls.Load())
	assert.Equal(t, []string{"canceled"}, metrics.outcomes)
}

func TestUpstreamBudget(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		retries  uint64
		interval time.Duration
		want     time.Duration
	}{
		{"defaults", 8 * time.Second, 1, 500 * time.Millisecond, 33500 * time.Millisecond},
		{"no retries", 8 * time.Second, 0, 500 * time.Millisecond, 16 * time.Second},
		{"growing waits", time.Second, 2, 100 * time.Millisecond, 2 * (3*time.Second + 150*time.Millisecond + 225*time.Millisecond)},
		{"library default interval", time.Second, 1, 0, 2 * (2*time.Second + 750*time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UpstreamBudget(tt.timeout, tt.retries, tt.interval))
		})
	}
}

func TestClassify_SentimentFailureIsUnavailable(t *testing.T) {
	llm := &stubLLM{answer: safeAnswer}
	sentiment := &stubSentiment{err: errors.New("401 unauthorized")}
	svc := newTestService(t, llm, sentiment, nil, nil, nil, testConfig())

	result, err := svc.Classify(context.Background(), &AnalysisRequest{Text: "Jangan lupa meeting besok jam 10"})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestClassify_RetriesTransientFailure(t *testing.T) {
	llm := &stubLLM{answer: safeAnswer, failFor: 1}
	cfg := testConfig()
	cfg.Retries = 1
	svc := newTestService(t, llm, &stubSentiment{result: positiveSentiment()}, nil, nil, nil, cfg)

	result, err := svc.Classify(context.Background(), &AnalysisRequest{Text: "Jangan lupa meeting besok jam 10"})
	require.NoError(t, err)
	assert.Equal(t, CategorySafe, result.RiskCategory)
	assert.Equal(t, int32(2), llm.calls.Load())
}

func TestClassify_FormatErrorsAreNotRetried(t *testing.T) {
	llm := &stubLLM{err: ErrUpstreamFormat}
	cfg := testConfig()
	cfg.Retries = 3
	svc := newTestService(t, llm, &stubSentiment{result: positiveSentiment()}, nil, nil, nil, cfg)

	result, err := svc.Classify(context.Background(), &AnalysisRequest{Text: "halo"})
	assert.ErrorIs(t, err, ErrUpstreamFormat)
	require.NotNil(t, result)
	assert.Equal(t, CategoryUnknown, result.RiskCategory)
	assert.Empty(t, result.ModelUsed)
	assert.Equal(t, int32(1), llm.calls.Load())
}

func TestClassify_Idempotent(t *testing.T) {
	llm := &stubLLM{answer: scamAnswer, model: "gpt-4o"}
	svc := newTestService(t, llm, &stubSentiment{result: positiveSentiment()}, &stubDetector{code: "id"}, nil, nil, testConfig())

	req := &AnalysisRequest{Text: "Selamat! Anda menang hadiah 50 juta, klik link ini"}
	first, err := svc.Classify(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Classify(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClassify_CacheHit(t *testing.T) {
	llm := &stubLLM{answer: scamAnswer, model: "gpt-4o"}
	sentiment := &stubSentiment{result: positiveSentiment()}
	metrics := &recordingMetrics{}
	cfg := testConfig()
	cfg.CacheEnabled = true
	cfg.CacheTTL = time.Hour
	svc := newTestService(t, llm, sentiment, nil, newMapCache(), metrics, cfg)

	req := &AnalysisRequest{Text: "  Selamat! Anda menang hadiah 50 juta  "}
	first, err := svc.Classify(context.Background(), req)
	require.NoError(t, err)

	// Same text after normalization hits the cache
	second, err := svc.Classify(context.Background(), &AnalysisRequest{Text: "Selamat! Anda menang hadiah 50 juta"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), llm.calls.Load())
	assert.Equal(t, int32(1), sentiment.calls.Load())
	assert.Equal(t, []string{"ok", "cache_hit"}, metrics.outcomes)
}

func TestClassify_LanguageHintCaseSharesCacheEntry(t *testing.T) {
	llm := &stubLLM{answer: scamAnswer, model: "gpt-4o"}
	cfg := testConfig()
	cfg.CacheEnabled = true
	cfg.CacheTTL = time.Hour
	svc := newTestService(t, llm, &stubSentiment{result: positiveSentiment()}, nil, newMapCache(), nil, cfg)

	text := "Selamat! Anda menang hadiah 50 juta"
	first, err := svc.Classify(context.Background(), &AnalysisRequest{Text: text, LanguageHint: "ID"})
	require.NoError(t, err)
	second, err := svc.Classify(context.Background(), &AnalysisRequest{Text: text, LanguageHint: " id "})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), llm.calls.Load())
}

func TestClassify_LanguageResolution(t *testing.T) {
	tests := []struct {
		name     string
		detector LanguageDetector
		hint     string
		text     string
		want     string
	}{
		{"hint wins", &stubDetector{code: "id"}, "en", "Selamat! Anda menang hadiah", "English"},
		{"detected language", &stubDetector{code: "ms"}, "", "Terima kasih banyak", "Malay"},
		{"keyword override", &stubDetector{code: "en"}, "", "Congratulations anda menang hadiah", "Indonesian"},
		{"english without keywords", &stubDetector{code: "en"}, "", "See you at the meeting", "English"},
		{"detection failure uses default", &stubDetector{err: errors.New("boom")}, "", "halo", "Indonesian"},
		{"unrecognised code uses default", &stubDetector{code: "(Unknown)"}, "", "???", "Indonesian"},
		{"no detector uses default", nil, "", "halo", "Indonesian"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &stubLLM{answer: safeAnswer}
			svc := newTestService(t, llm, &stubSentiment{result: positiveSentiment()}, tt.detector, nil, nil, testConfig())

			result, err := svc.Classify(context.Background(), &AnalysisRequest{Text: tt.text, LanguageHint: tt.hint})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.DetectedLanguage)
			assert.Contains(t, llm.lastPrompt(), "written in "+tt.want)
		})
	}
}

func TestNewClassifierService_Configuration(t *testing.T) {
	logger := zap.NewNop()

	cfg := testConfig()
	cfg.DefaultLanguage = ""
	_, err := NewClassifierService(&stubLLM{}, &stubSentiment{}, nil, nil, nil, utils.NewTextProcessor(logger), nil, logger, cfg)
	assert.ErrorIs(t, err, ErrConfiguration)

	cfg = testConfig()
	cfg.UpstreamTimeout = 0
	_, err = NewClassifierService(&stubLLM{}, &stubSentiment{}, nil, nil, nil, utils.NewTextProcessor(logger), nil, logger, cfg)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestUnavailable(t *testing.T) {
	err := Unavailable("generative", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")

	assert.Same(t, err, Unavailable("generative", err))
}
