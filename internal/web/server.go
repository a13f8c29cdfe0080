// Package web serves the browser front-end for AiChan.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFiles embed.FS

// Handler returns an http.Handler that serves the chat UI.
func Handler() http.Handler {
	// Strip the "static" prefix from embedded files
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	// FileServer answers "/" with index.html and redirects explicit
	// "/index.html" requests back to "/".
	fileServer := http.FileServer(http.FS(subFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fileServer.ServeHTTP(w, r)
	})
}

// RegisterRoutes mounts the UI at the root of mux. API routes
// registered with more specific patterns take precedence.
func RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /", Handler())
}
