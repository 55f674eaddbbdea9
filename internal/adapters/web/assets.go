package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/mikey/cekfakta-ai/internal/core"
)

//go:embed templates static
var assetsFS embed.FS

// pageData is the view model of the index page
type pageData struct {
	Text       string
	Language   string
	Result     *core.AnalysisResult
	AnalysisID string
	Degraded   bool
	Error      string
}

// staticFS returns the embedded stylesheet and script directory
func staticFS() (fs.FS, error) {
	return fs.Sub(assetsFS, "static")
}

// loadTemplates parses the embedded page templates
func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"percent": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v*100)
		},
		"categoryClass": func(c core.RiskCategory) string {
			switch c {
			case core.CategorySafe:
				return "safe"
			case core.CategoryUnknown:
				return "unknown"
			default:
				return "danger"
			}
		},
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// renderPage executes the index template into a buffer first so a template
// failure never leaves a half-written page behind
func renderPage(w http.ResponseWriter, tmpl *template.Template, status int, data pageData) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
