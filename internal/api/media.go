package api

import (
	"net/http"

	"github.com/starford/wunjo/internal/annotator"
)

// MediaHandler streams media files from the open library so the viewer
// can display them.
type MediaHandler struct {
	svc *annotator.Service
}

// NewMediaHandler creates a handler backed by the session service.
func NewMediaHandler(svc *annotator.Service) *MediaHandler {
	return &MediaHandler{svc: svc}
}

// ServeFile handles GET /files/*. Only paths in the working list
// resolve, so traversal outside the library is impossible.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	abs, err := h.svc.AbsPath(r.Context(), path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
