// Package site serves the embedded browser viewer for instance streams.
package site

import (
	"context"
	"net/http"
)

// Register attaches the viewer at /viewer/.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/viewer/", http.StripPrefix("/viewer/", http.FileServer(FS())))
}
