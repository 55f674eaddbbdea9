package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mikey/cekfakta-ai/internal/config"
	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/mikey/cekfakta-ai/internal/metrics"
	"github.com/mikey/cekfakta-ai/internal/ports"
)

const (
	serviceName        = "CekFakta AI"
	unavailableMessage = "service temporarily unavailable, please try again later"
	degradedMessage    = "the model answer could not be interpreted, showing a fallback result"
	internalMessage    = "internal server error"
)

// Router serves the HTML form and the JSON API
type Router struct {
	classifier   ports.Classifier
	templates    *template.Template
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewRouter builds the chi handler tree. recorder may be nil.
func NewRouter(
	classifier ports.Classifier,
	recorder *metrics.Recorder,
	cfg config.ServerConfig,
	logger *zap.Logger,
) (http.Handler, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	static, err := staticFS()
	if err != nil {
		return nil, err
	}

	rt := &Router{
		classifier:   classifier,
		templates:    tmpl,
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       logger,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(requestLogger(logger))
	mux.Use(middleware.Recoverer)
	if recorder != nil {
		mux.Use(recorder.Middleware)
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	mux.Get("/", rt.wrapPage(rt.handleIndex))
	mux.Get("/api/health", rt.handleHealth)
	mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	if recorder != nil {
		mux.Method(http.MethodGet, "/metrics", recorder.Handler())
	}

	mux.Group(func(g chi.Router) {
		if cfg.RateLimitEnabled {
			limiter := newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, logger)
			g.Use(limiter.middleware)
		}
		g.Post("/", rt.wrapPage(rt.handleForm))
		g.Post("/api/analyze", rt.wrap(rt.handleAnalyze))
	})

	return mux, nil
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap converts a handler error into the JSON error envelope
func (rt *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, message := rt.errorResponse(req, err)
			writeJSON(w, status, analyzeResponse{Success: false, Error: message})
		}
	}
}

// wrapPage reports template failures as a plain 500
func (rt *Router) wrapPage(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			rt.logger.Error("Failed to render page",
				zap.String("request_id", middleware.GetReqID(req.Context())),
				zap.Error(err))
			http.Error(w, internalMessage, http.StatusInternalServerError)
		}
	}
}

// requestError is a malformed request rejected before classification
type requestError struct {
	status  int
	message string
	err     error
}

func (e *requestError) Error() string {
	return e.message + ": " + e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func newRequestError(err error, message string) *requestError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &requestError{status: http.StatusRequestEntityTooLarge, message: "request body too large", err: err}
	}
	return &requestError{status: http.StatusBadRequest, message: message, err: err}
}

// errorResponse maps an error to a status code and a user-facing message and logs it
func (rt *Router) errorResponse(req *http.Request, err error) (int, string) {
	var (
		reqErr  *requestError
		status  int
		message string
	)
	switch {
	case errors.As(err, &reqErr):
		status, message = reqErr.status, reqErr.message
	case errors.Is(err, core.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrUpstreamUnavailable):
		status, message = http.StatusServiceUnavailable, unavailableMessage
	default:
		status, message = http.StatusInternalServerError, internalMessage
	}

	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(req.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, context.Canceled) && req.Context().Err() != nil:
		rt.logger.Debug("Client went away before the analysis finished", fields...)
	case status >= http.StatusInternalServerError:
		rt.logger.Error("Request failed", fields...)
	default:
		rt.logger.Debug("Request rejected", fields...)
	}
	return status, message
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
