package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/wunjo/internal/annotator"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *annotator.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Session lifecycle.
	r.Post("/session", h.OpenSession)
	r.Get("/session", h.GetSession)
	r.Delete("/session", h.CloseSession)
	r.Post("/session/subfolders", h.DecideSubfolder)
	r.Post("/session/rescan", h.Rescan)

	// Working list.
	r.Get("/media", h.ListMedia)
	r.Get("/media/*", h.GetMedia)
	r.Get("/navigate", h.Navigate)

	// Record mutations.
	r.Post("/skip/*", h.ToggleSkip)
	r.Post("/rotate/*", h.Rotate)
	r.Post("/volume/*", h.Volume)
	r.Post("/set-aside/*", h.SetAside)
	r.Put("/text/*", h.SetText)
	r.Put("/datetime/*", h.SetDatetime)
	r.Put("/location/*", h.SetLocation)
	r.Post("/geocode/*", h.Geocode)

	// Video timeline.
	r.Post("/annotations/*", h.AddAnnotation)
	r.Put("/annotations/*", h.EditAnnotation)
	r.Delete("/annotations/*", h.DeleteAnnotation)
	r.Post("/skips/*", h.AddSkipSegment)
	r.Delete("/skips/*", h.RemoveSkipSegment)

	// Search.
	r.Get("/search", h.Search)

	// Viewer settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
