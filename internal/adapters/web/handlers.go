package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/cekfakta-ai/internal/core"
)

type analyzeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type analyzeResponse struct {
	Success    bool                 `json:"success"`
	Degraded   bool                 `json:"degraded,omitempty"`
	AnalysisID string               `json:"analysis_id,omitempty"`
	Error      string               `json:"error,omitempty"`
	Result     *core.AnalysisResult `json:"result,omitempty"`
}

// GET /
func (rt *Router) handleIndex(w http.ResponseWriter, req *http.Request) error {
	return renderPage(w, rt.templates, http.StatusOK, pageData{})
}

// GET /api/health
func (rt *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

// POST /api/analyze
// Body: {"text": "...", "language": "id"}
func (rt *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, rt.maxBodyBytes)

	var body analyzeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return newRequestError(err, "request body must be a JSON object with a text field")
	}

	result, degraded, err := rt.classify(req, body.Text, body.Language)
	if err != nil {
		return err
	}

	resp := analyzeResponse{
		Success:    true,
		AnalysisID: uuid.NewString(),
		Result:     result,
	}
	if degraded {
		resp.Degraded = true
		resp.Error = degradedMessage
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// POST /
// Form fields: text, language
func (rt *Router) handleForm(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, rt.maxBodyBytes)

	if err := req.ParseForm(); err != nil {
		status, message := rt.errorResponse(req, newRequestError(err, "the form could not be read"))
		return renderPage(w, rt.templates, status, pageData{Error: message})
	}

	data := pageData{
		Text:     req.PostFormValue("text"),
		Language: strings.TrimSpace(req.PostFormValue("language")),
	}

	result, degraded, err := rt.classify(req, data.Text, data.Language)
	if err != nil {
		status, message := rt.errorResponse(req, err)
		data.Error = message
		return renderPage(w, rt.templates, status, data)
	}

	data.Result = result
	data.Degraded = degraded
	data.AnalysisID = uuid.NewString()
	return renderPage(w, rt.templates, http.StatusOK, data)
}

// classify runs the classifier and reports whether the result is the fallback
func (rt *Router) classify(req *http.Request, text, language string) (*core.AnalysisResult, bool, error) {
	result, err := rt.classifier.Classify(req.Context(), &core.AnalysisRequest{
		Text:         text,
		LanguageHint: language,
	})
	if err == nil {
		return result, false, nil
	}
	if errors.Is(err, core.ErrUpstreamFormat) && result != nil {
		rt.logger.Warn("Serving fallback result",
			zap.String("request_id", middleware.GetReqID(req.Context())),
			zap.Error(err))
		return result, true, nil
	}
	return nil, false, err
}
