package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"placemap/internal/adapters/formstack"
	"placemap/internal/adapters/icons"
	"placemap/internal/domain"
)

// PlacesQuerier answers the per-city submission queries (normally the
// cached query service).
type PlacesQuerier interface {
	SubmissionsForCity(ctx context.Context, city string) ([]domain.Submission, error)
}

// FormProxy exposes the parts of the form backend the shell embeds.
type FormProxy interface {
	FormHTML(ctx context.Context) (string, error)
	Fields(ctx context.Context) ([]formstack.Field, error)
}

type Handlers struct {
	Q    PlacesQuerier
	Form FormProxy
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Get("/places", h.getPlaces)
	s.mux.Get("/places/{city}", h.getPlaces)
	s.mux.Get("/fields", h.getFields)
	s.mux.Get("/form", h.getForm)
	s.mux.Get("/icon", h.getIcon)
	s.mux.Get("/icon/{value}", h.getIcon)
	s.mux.Get("/text/{value}", h.getTextMarker)
}

// placeRow is the wire shape the map shell consumes.
type placeRow struct {
	SubmissionID  string `json:"submission_id"`
	Timestamp     string `json:"timestamp"`
	Name          string `json:"name"`
	Rate          int    `json:"rate"`
	Review        string `json:"review"`
	Place         string `json:"place"`
	Address       string `json:"address"`
	GooglePlaceID string `json:"googleplaceid,omitempty"`
}

func (h *Handlers) getPlaces(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	rows, err := h.Q.SubmissionsForCity(r.Context(), city)
	if err != nil {
		// The engine treats a failed fetch as an empty sequence; the
		// proxy answers the same way so the shell never sees a hole.
		log.Warn().Err(err).Str("city", city).Msg("places query failed")
		rows = nil
	}

	out := make([]placeRow, 0, len(rows))
	for _, s := range rows {
		out = append(out, placeRow{
			SubmissionID:  s.SubmissionID,
			Timestamp:     s.Timestamp.Format("2006-01-02 15:04:05"),
			Name:          s.Author,
			Rate:          s.Rating,
			Review:        s.Text,
			Place:         s.PlaceName,
			Address:       s.PlaceAddress,
			GooglePlaceID: s.ProviderPlaceID,
		})
	}
	writeJSON(w, out)
}

func (h *Handlers) getFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.Form.Fields(r.Context())
	if err != nil {
		http.Error(w, "form backend unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, fields)
}

func (h *Handlers) getForm(w http.ResponseWriter, r *http.Request) {
	html, err := h.Form.FormHTML(r.Context())
	if err != nil {
		http.Error(w, "form backend unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (h *Handlers) getIcon(w http.ResponseWriter, r *http.Request) {
	count, _ := strconv.Atoi(chi.URLParam(r, "value"))
	b, err := icons.Pin(count)
	if err != nil {
		http.Error(w, "icon render failed", http.StatusInternalServerError)
		return
	}
	writePNG(w, b)
}

func (h *Handlers) getTextMarker(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "value"))
	if err != nil || name == "" {
		http.Error(w, "bad name", http.StatusBadRequest)
		return
	}
	b, err := icons.TextBubble(name)
	if err != nil {
		http.Error(w, "icon render failed", http.StatusInternalServerError)
		return
	}
	writePNG(w, b)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writePNG(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(b); err != nil {
		log.Error().Err(err).Msg("write PNG response failed")
	}
}
