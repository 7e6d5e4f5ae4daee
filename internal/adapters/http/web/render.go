package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/okian/inningscast/internal/domain/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	pageLogin    = "login.html"
	pageRegister = "register.html"
	pagePredict  = "predict_form.html"
	pageResult   = "result.html"
	pageAbout    = "about.html"
	pageError    = "error.html"
)

type pageData struct {
	Title      string
	Message    string
	Teams      []string
	Range      types.ScoreRange
	Status     int
	StatusText string
}

// pages holds one parsed template set per page, each layered on base.html.
type pages map[string]*template.Template

func loadPages() (pages, error) {
	names := []string{pageLogin, pageRegister, pagePredict, pageResult, pageAbout, pageError}
	p := make(pages, len(names))
	for _, name := range names {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTemplate, name, err)
		}
		p[name] = tmpl
	}
	return p, nil
}

// render executes page into a buffer first so a template failure never
// leaves a half-written 200 behind.
func (p pages) render(w http.ResponseWriter, status int, name string, data pageData) error {
	tmpl, ok := p[name]
	if !ok {
		return fmt.Errorf("%w: unknown page %s", ErrTemplate, name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTemplate, name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}
