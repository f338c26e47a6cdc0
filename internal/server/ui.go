package server

import (
	"io/fs"
	"net/http"
)

// uiHandler serves the embedded dashboard page at the root path. The mux
// routes /api/ traffic before this handler, so anything else it sees on a
// non-root path is a genuine 404 and gets the API's JSON body, never HTML.
type uiHandler struct {
	fsys fs.FS
}

// newUIHandler creates the root-path handler. A nil filesystem disables the
// dashboard, turning every root-path request into a 404.
func newUIHandler(fsys fs.FS) http.Handler {
	if fsys == nil {
		return http.HandlerFunc(handleNotFound)
	}
	return &uiHandler{fsys: fsys}
}

func (h *uiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		handleNotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	http.ServeFileFS(w, r, h.fsys, "index.html")
}
