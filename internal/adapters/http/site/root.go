// Package site serves the embedded stylesheet and other static assets.
package site

import (
	"context"
	"net/http"

	"github.com/okian/inningscast/internal/adapters/http/api"
)

// Register attaches GET /static/ to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	files := http.StripPrefix("/static/", http.FileServer(FS()))
	mux.HandleFunc("GET /static/", api.MetricsMiddleware(files.ServeHTTP, "static"))
}
