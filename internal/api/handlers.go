package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/wunjo/internal/annotator"
	"github.com/starford/wunjo/internal/apperr"
	"github.com/starford/wunjo/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *annotator.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *annotator.Service) *Handler {
	return &Handler{svc: svc}
}

// mediaPath extracts the media path from the URL wildcard. Supports
// encoded slashes from generated clients (e.g. trip%2Fbeach.jpg).
func mediaPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// respondErr maps service errors onto HTTP statuses. Unexpected errors
// are logged and hidden behind a generic 500.
func respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNoSession):
		writeJSON(w, http.StatusConflict, errorBody("no session open"))
	case errors.Is(err, apperr.ErrUnknownFile):
		writeJSON(w, http.StatusNotFound, errorBody("file is not in the working list"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrKindMismatch), errors.Is(err, apperr.ErrInvalid),
		errors.Is(err, apperr.ErrDiscovery), errors.Is(err, apperr.ErrCorruptStore):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// respondUpdated reloads the mutated entry so the client gets the new
// record state in one round trip.
func (h *Handler) respondUpdated(w http.ResponseWriter, r *http.Request, path string) {
	e, d, err := h.svc.Detail(r.Context(), path)
	if err != nil {
		respondErr(w, "load updated media", err)
		return
	}
	writeJSON(w, http.StatusOK, toDetail(e, d))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// OpenSession handles POST /api/session.
//
//	@Summary		Open a library folder, replacing any open session
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	true	"Folder to open"
//	@Success		201		{object}	SessionInfo
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Root == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("root is required"))
		return
	}
	info, err := h.svc.OpenSession(r.Context(), req.Root)
	if err != nil {
		respondErr(w, "open session", err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// GetSession handles GET /api/session.
//
//	@Summary		Describe the open session
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionInfo
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Info(r.Context())
	if err != nil {
		respondErr(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// CloseSession handles DELETE /api/session.
//
//	@Summary		Close the open session
//	@Tags			session
//	@Success		204	"Session closed"
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session [delete]
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseSession(r.Context()); err != nil {
		respondErr(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DecideSubfolder handles POST /api/session/subfolders.
//
//	@Summary		Include or exclude a pending subfolder
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SubfolderRequest	true	"Decision"
//	@Success		200		{object}	SessionInfo
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/subfolders [post]
func (h *Handler) DecideSubfolder(w http.ResponseWriter, r *http.Request) {
	var req SubfolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" || req.Include == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("path and include are required"))
		return
	}
	if err := h.svc.DecideSubfolder(r.Context(), req.Path, *req.Include); err != nil {
		respondErr(w, "decide subfolder", err)
		return
	}
	info, err := h.svc.Info(r.Context())
	if err != nil {
		respondErr(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Rescan handles POST /api/session/rescan.
//
//	@Summary		Re-run discovery and reconcile the working list
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionInfo
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/rescan [post]
func (h *Handler) Rescan(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Rescan(r.Context()); err != nil {
		respondErr(w, "rescan", err)
		return
	}
	info, err := h.svc.Info(r.Context())
	if err != nil {
		respondErr(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ListMedia handles GET /api/media.
//
//	@Summary		List the ordered working list
//	@Tags			media
//	@Produce		json
//	@Success		200	{object}	MediaListResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/media [get]
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Entries(r.Context())
	if err != nil {
		respondErr(w, "list media", err)
		return
	}
	items := make([]MediaEntry, len(entries))
	for i, e := range entries {
		items[i] = toEntry(e)
	}
	writeJSON(w, http.StatusOK, MediaListResponse{Media: items, Total: len(items)})
}

// GetMedia handles GET /api/media/*.
//
//	@Summary		Get one entry with duration and resolved skip ranges
//	@Tags			media
//	@Produce		json
//	@Param			path	path		string	true	"Media path"
//	@Success		200		{object}	MediaDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/media/{path} [get]
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	e, d, err := h.svc.Detail(r.Context(), path)
	if err != nil {
		respondErr(w, "get media", err)
		return
	}
	writeJSON(w, http.StatusOK, toDetail(e, d))
}

// Navigate handles GET /api/navigate.
//
//	@Summary		Step to the neighbouring entry, passing over skipped files
//	@Tags			media
//	@Produce		json
//	@Param			from	query		string	true	"Current media path"
//	@Param			dir		query		string	true	"Direction"	Enums(next, prev)
//	@Success		200		{object}	MediaEntry
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/navigate [get]
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, dir := q.Get("from"), q.Get("dir")
	if from == "" || dir == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameters 'from' and 'dir' are required"))
		return
	}
	e, err := h.svc.Navigate(r.Context(), from, dir)
	if err != nil {
		respondErr(w, "navigate", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntry(e))
}

// ToggleSkip handles POST /api/skip/*.
//
//	@Summary		Toggle whole-file skip on an image
//	@Tags			record
//	@Produce		json
//	@Param			path	path		string	true	"Media path"
//	@Success		200		{object}	MediaDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/skip/{path} [post]
func (h *Handler) ToggleSkip(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	if err := h.svc.ToggleSkip(r.Context(), path); err != nil {
		respondErr(w, "toggle skip", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// Rotate handles POST /api/rotate/*.
//
//	@Summary		Rotate an image a quarter turn clockwise
//	@Tags			record
//	@Produce		json
//	@Param			path	path		string	true	"Media path"
//	@Success		200		{object}	MediaDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rotate/{path} [post]
func (h *Handler) Rotate(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	if err := h.svc.Rotate(r.Context(), path); err != nil {
		respondErr(w, "rotate", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// Volume handles POST /api/volume/*. With a body the volume is set to
// the given step; without one it cycles to the next step.
//
//	@Summary		Set or cycle video volume
//	@Tags			record
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Media path"
//	@Param			body	body		VolumeRequest	false	"Explicit step"
//	@Success		200		{object}	MediaDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/volume/{path} [post]
func (h *Handler) Volume(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	var req VolumeRequest
	if r.ContentLength > 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}
	var err error
	if req.Volume != nil {
		err = h.svc.SetVolume(r.Context(), path, *req.Volume)
	} else {
		err = h.svc.CycleVolume(r.Context(), path)
	}
	if err != nil {
		respondErr(w, "volume", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// SetAside handles POST /api/set-aside/*.
//
//	@Summary		Move a file to the set_aside folder and drop it from the list
//	@Tags			record
//	@Param			path	path	string	true	"Media path"
//	@Success		204		"File set aside"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/set-aside/{path} [post]
func (h *Handler) SetAside(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SetAside(r.Context(), mediaPath(r)); err != nil {
		respondErr(w, "set aside", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetText handles PUT /api/text/*.
//
//	@Summary		Replace the free-form text of a record
//	@Tags			record
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string		true	"Media path"
//	@Param			body	body		TextRequest	true	"New text"
//	@Success		200		{object}	MediaDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/text/{path} [put]
func (h *Handler) SetText(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	var req TextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.SetText(r.Context(), path, req.Text); err != nil {
		respondErr(w, "set text", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// SetDatetime handles PUT /api/datetime/*.
//
//	@Summary		Override the capture instant, or clear the override
//	@Tags			record
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Media path"
//	@Param			body	body		DatetimeRequest	true	"Override value, empty to clear"
//	@Success		200		{object}	MediaDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/datetime/{path} [put]
func (h *Handler) SetDatetime(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	var req DatetimeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.SetManualDatetime(r.Context(), path, req.Datetime); err != nil {
		respondErr(w, "set datetime", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// SetLocation handles PUT /api/location/*.
//
//	@Summary		Set the manual location text, empty to clear
//	@Tags			record
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string		true	"Media path"
//	@Param			body	body		TextRequest	true	"Location text"
//	@Success		200		{object}	MediaDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/location/{path} [put]
func (h *Handler) SetLocation(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	var req TextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.SetLocation(r.Context(), path, req.Text); err != nil {
		respondErr(w, "set location", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// Geocode handles POST /api/geocode/*.
//
//	@Summary		Read GPS coordinates from the image and reverse geocode them
//	@Tags			record
//	@Produce		json
//	@Param			path	path		string	true	"Media path"
//	@Success		200		{object}	MediaDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/geocode/{path} [post]
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	if err := h.svc.RefreshLocation(r.Context(), path); err != nil {
		respondErr(w, "geocode", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// AddAnnotation handles POST /api/annotations/*.
//
//	@Summary		Add a timestamped text marker to a video
//	@Tags			timeline
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string					true	"Media path"
//	@Param			body	body		AnnotationAddRequest	true	"Marker"
//	@Success		200		{object}	MediaDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/annotations/{path} [post]
func (h *Handler) AddAnnotation(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	var req AnnotationAddRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Timestamp == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("timestamp is required"))
		return
	}
	if err := h.svc.AddVideoAnnotation(r.Context(), path, *req.Timestamp, req.Text); err != nil {
		respondErr(w, "add annotation", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// EditAnnotation handles PUT /api/annotations/*.
//
//	@Summary		Rewrite the marker nearest before the playhead
//	@Tags			timeline
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string					true	"Media path"
//	@Param			body	body		AnnotationEditRequest	true	"New text"
//	@Success		200		{object}	MediaDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/annotations/{path} [put]
func (h *Handler) EditAnnotation(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	var req AnnotationEditRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Playhead == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("playhead is required"))
		return
	}
	if err := h.svc.EditVideoAnnotation(r.Context(), path, *req.Playhead, req.Text); err != nil {
		respondErr(w, "edit annotation", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// DeleteAnnotation handles DELETE /api/annotations/*.
//
//	@Summary		Delete the marker nearest before the playhead
//	@Tags			timeline
//	@Produce		json
//	@Param			path		path		string	true	"Media path"
//	@Param			playhead	query		number	true	"Playhead position in seconds"
//	@Success		200			{object}	MediaDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/annotations/{path} [delete]
func (h *Handler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	playhead, err := strconv.ParseFloat(r.URL.Query().Get("playhead"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'playhead' is required"))
		return
	}
	if err := h.svc.RemoveVideoAnnotation(r.Context(), path, playhead); err != nil {
		respondErr(w, "delete annotation", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// AddSkipSegment handles POST /api/skips/*.
//
//	@Summary		Open a skip range on a video timeline
//	@Tags			timeline
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Media path"
//	@Param			body	body		SkipAddRequest	true	"Where the range starts"
//	@Success		200		{object}	MediaDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/skips/{path} [post]
func (h *Handler) AddSkipSegment(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	var req SkipAddRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Timestamp == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("timestamp is required"))
		return
	}
	if err := h.svc.AddSkipSegment(r.Context(), path, *req.Timestamp); err != nil {
		respondErr(w, "add skip segment", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// RemoveSkipSegment handles DELETE /api/skips/*.
//
//	@Summary		Delete the skip range starting exactly at the timestamp
//	@Tags			timeline
//	@Produce		json
//	@Param			path		path		string	true	"Media path"
//	@Param			timestamp	query		number	true	"Range start in seconds"
//	@Success		200			{object}	MediaDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/skips/{path} [delete]
func (h *Handler) RemoveSkipSegment(w http.ResponseWriter, r *http.Request) {
	path := mediaPath(r)
	ts, err := strconv.ParseFloat(r.URL.Query().Get("timestamp"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'timestamp' is required"))
		return
	}
	if err := h.svc.RemoveSkipSegment(r.Context(), path, ts); err != nil {
		respondErr(w, "remove skip segment", err)
		return
	}
	h.respondUpdated(w, r, path)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across captions, notes and places
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		respondErr(w, "search", err)
		return
	}
	if results == nil {
		results = []SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Read the viewer settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	models.Settings
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Settings(r.Context())
	if err != nil {
		respondErr(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateSettings handles PUT /api/settings.
//
//	@Summary		Replace the viewer settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Settings	true	"New settings"
//	@Success		200		{object}	models.Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.Settings
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.UpdateSettings(r.Context(), req); err != nil {
		respondErr(w, "update settings", err)
		return
	}
	v, err := h.svc.Settings(r.Context())
	if err != nil {
		respondErr(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
