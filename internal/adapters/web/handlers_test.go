package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/cekfakta-ai/internal/config"
	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/mikey/cekfakta-ai/internal/metrics"
)

type stubClassifier struct {
	result *core.AnalysisResult
	err    error
	panics bool
	calls  int
	last   *core.AnalysisRequest
}

func (s *stubClassifier) Classify(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisResult, error) {
	s.calls++
	s.last = req
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func scamResult() *core.AnalysisResult {
	return &core.AnalysisResult{
		RiskCategory:     core.CategoryScam,
		Explanation:      "Pesan menjanjikan hadiah dan meminta klik tautan.",
		Sentiment:        core.SentimentPositive,
		Confidence:       0.9,
		Indicators:       []string{"hadiah", "tautan"},
		SentimentScores:  core.SentimentScores{Positive: 0.8, Neutral: 0.15, Negative: 0.05},
		DetectedLanguage: "Indonesian",
		ModelUsed:        "gpt-4o-mini",
	}
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		MaxBodyBytes:   1024,
		AllowedOrigins: []string{"*"},
	}
}

func newTestRouter(t *testing.T, classifier *stubClassifier, cfg config.ServerConfig, recorder *metrics.Recorder) http.Handler {
	t.Helper()
	h, err := NewRouter(classifier, recorder, cfg, zap.NewNop())
	require.NoError(t, err)
	return h
}

func postJSON(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) analyzeResponse {
	t.Helper()
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, &stubClassifier{}, testServerConfig(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"CekFakta AI"}`, rec.Body.String())
}

func TestAnalyze(t *testing.T) {
	fallback := core.FallbackResult(nil, core.Language{Code: "id", Name: "Indonesian"}, "gpt-4o-mini")

	tests := []struct {
		name         string
		result       *core.AnalysisResult
		err          error
		wantStatus   int
		wantSuccess  bool
		wantDegraded bool
		wantError    string
	}{
		{
			name:        "success",
			result:      scamResult(),
			wantStatus:  http.StatusOK,
			wantSuccess: true,
		},
		{
			name:         "format error degrades to fallback",
			result:       fallback,
			err:          fmt.Errorf("%w: no JSON object found", core.ErrUpstreamFormat),
			wantStatus:   http.StatusOK,
			wantSuccess:  true,
			wantDegraded: true,
			wantError:    degradedMessage,
		},
		{
			name:       "invalid input",
			err:        fmt.Errorf("%w: text must not be empty", core.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid input: text must not be empty",
		},
		{
			name:       "upstream unavailable",
			err:        core.Unavailable("generative", errors.New("connection refused")),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  unavailableMessage,
		},
		{
			name:       "format error without result",
			err:        core.ErrUpstreamFormat,
			wantStatus: http.StatusInternalServerError,
			wantError:  internalMessage,
		},
		{
			name:       "unexpected error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantError:  internalMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &stubClassifier{result: tt.result, err: tt.err}
			h := newTestRouter(t, classifier, testServerConfig(), nil)

			rec := postJSON(h, `{"text":"Selamat! Anda menang hadiah 50 juta"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			resp := decodeResponse(t, rec)
			assert.Equal(t, tt.wantSuccess, resp.Success)
			assert.Equal(t, tt.wantDegraded, resp.Degraded)
			assert.Equal(t, tt.wantError, resp.Error)
			if tt.wantSuccess {
				require.NotNil(t, resp.Result)
				assert.Equal(t, tt.result.RiskCategory, resp.Result.RiskCategory)
				assert.NotEmpty(t, resp.AnalysisID)
			} else {
				assert.Nil(t, resp.Result)
			}
		})
	}
}

func TestAnalyze_PassesLanguageHint(t *testing.T) {
	classifier := &stubClassifier{result: scamResult()}
	h := newTestRouter(t, classifier, testServerConfig(), nil)

	rec := postJSON(h, `{"text":"halo","language":"ms"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, classifier.last)
	assert.Equal(t, "halo", classifier.last.Text)
	assert.Equal(t, "ms", classifier.last.LanguageHint)
}

func TestAnalyze_MalformedRequests(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"not json", "text=halo", http.StatusBadRequest},
		{"text is not a string", `{"text": 42}`, http.StatusBadRequest},
		{"empty body", "", http.StatusBadRequest},
		{"body over the limit", `{"text":"` + strings.Repeat("a", 2048) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &stubClassifier{result: scamResult()}
			h := newTestRouter(t, classifier, testServerConfig(), nil)

			rec := postJSON(h, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
			assert.Zero(t, classifier.calls)
		})
	}
}

func TestAnalyze_PanicIsRecovered(t *testing.T) {
	h := newTestRouter(t, &stubClassifier{panics: true}, testServerConfig(), nil)

	rec := postJSON(h, `{"text":"halo"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIndexPage(t *testing.T) {
	h := newTestRouter(t, &stubClassifier{}, testServerConfig(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>CekFakta AI</h1>")
	assert.NotContains(t, rec.Body.String(), `id="result"`)
}

func TestFormSubmission(t *testing.T) {
	tests := []struct {
		name         string
		result       *core.AnalysisResult
		err          error
		wantStatus   int
		wantContains []string
	}{
		{
			name:         "renders result",
			result:       scamResult(),
			wantStatus:   http.StatusOK,
			wantContains: []string{`id="result"`, "Scam", "90%", "<li>hadiah</li>", "Indonesian"},
		},
		{
			name:         "renders invalid input",
			err:          fmt.Errorf("%w: text must not be empty", core.ErrInvalidInput),
			wantStatus:   http.StatusBadRequest,
			wantContains: []string{`class="alert"`, "text must not be empty"},
		},
		{
			name:         "renders unavailable",
			err:          core.Unavailable("sentiment", context.DeadlineExceeded),
			wantStatus:   http.StatusServiceUnavailable,
			wantContains: []string{unavailableMessage},
		},
		{
			name:         "renders fallback notice",
			result:       core.FallbackResult(nil, core.Language{Code: "id", Name: "Indonesian"}, ""),
			err:          core.ErrUpstreamFormat,
			wantStatus:   http.StatusOK,
			wantContains: []string{"Unknown", `class="notice"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &stubClassifier{result: tt.result, err: tt.err}
			h := newTestRouter(t, classifier, testServerConfig(), nil)

			form := url.Values{"text": {"Selamat! Anda menang <b>hadiah</b>"}, "language": {"id"}}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.wantContains {
				assert.Contains(t, body, want)
			}
			// submitted text is echoed back escaped
			assert.Contains(t, body, "&lt;b&gt;hadiah&lt;/b&gt;")
			require.NotNil(t, classifier.last)
			assert.Equal(t, "id", classifier.last.LanguageHint)
		})
	}
}

func TestStaticAssets(t *testing.T) {
	h := newTestRouter(t, &stubClassifier{}, testServerConfig(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestMetricsEndpoint(t *testing.T) {
	recorder := metrics.NewRecorder()
	h := newTestRouter(t, &stubClassifier{result: scamResult()}, testServerConfig(), recorder)

	postJSON(h, `{"text":"halo"}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cekfakta_http_requests_total{code="200",method="POST",route="/api/analyze"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	h := newTestRouter(t, &stubClassifier{}, testServerConfig(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	h := newTestRouter(t, &stubClassifier{}, testServerConfig(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitPerSecond = 0.001
	cfg.RateLimitBurst = 2
	classifier := &stubClassifier{result: scamResult()}
	h := newTestRouter(t, classifier, cfg, nil)

	for i := 0; i < 2; i++ {
		rec := postJSON(h, `{"text":"halo"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postJSON(h, `{"text":"halo"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, classifier.calls)

	// health checks are not limited
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_PerClientAndSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newRateLimiter(0.001, 1, zap.NewNop())
	l.now = func() time.Time { return now }

	ok, _ := l.allow("10.0.0.1")
	assert.True(t, ok)
	ok, wait := l.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Positive(t, wait)

	ok, _ = l.allow("10.0.0.2")
	assert.True(t, ok)
	assert.Equal(t, 2, l.size())

	now = now.Add(l.idleTTL + time.Second)
	ok, _ = l.allow("10.0.0.3")
	assert.True(t, ok)
	assert.Equal(t, 1, l.size())
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:53211"
	assert.Equal(t, "192.0.2.10", clientKey(req))

	req.RemoteAddr = "192.0.2.10"
	assert.Equal(t, "192.0.2.10", clientKey(req))
}
