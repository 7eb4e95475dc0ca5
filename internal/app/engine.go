package app

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"placemap/internal/domain"
	"placemap/internal/storage/memory"
)

// Config carries the engine's tunables. Zero values fall back to the
// defaults the UI shipped with.
type Config struct {
	SearchRadius   int
	Categories     []string
	MinZoom        int
	StartZoom      int
	Throttle       time.Duration
	FillRetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.SearchRadius == 0 {
		c.SearchRadius = 1000
	}
	if len(c.Categories) == 0 {
		c.Categories = []string{"food", "lodging", "park", "restaurant"}
	}
	if c.MinZoom == 0 {
		c.MinZoom = 17
	}
	if c.StartZoom == 0 {
		c.StartZoom = c.MinZoom
	}
	if c.Throttle == 0 {
		c.Throttle = 500 * time.Millisecond
	}
	if c.FillRetryDelay == 0 {
		c.FillRetryDelay = 3 * time.Second
	}
	return c
}

// Deps are the engine's collaborators, all behind domain ports.
type Deps struct {
	Source  domain.SubmissionSource
	Meta    domain.FormMetadata
	Places  domain.PlacesService
	Geo     domain.Geocoder
	Surface domain.MapSurface
	Images  domain.ImageLoader
	Form    domain.FormSurface
	Shell   domain.UIShell
	Log     zerolog.Logger
}

// Engine wires the store, ingestor, provider search, marker synchronizer
// and viewport controller, and exposes the entry points the UI shell
// calls. Every mutation funnels through the store's merge operations, so
// stale or duplicate callbacks cannot corrupt it.
type Engine struct {
	cfg      Config
	store    *memory.Store
	markers  *MarkerSynchronizer
	search   *ProviderSearch
	ingestor *SubmissionIngestor
	viewport *ViewportController

	geo   domain.Geocoder
	meta  domain.FormMetadata
	form  domain.FormSurface
	shell domain.UIShell
	log   zerolog.Logger

	// schedule defers the fill-failure refresh; tests swap it out.
	schedule func(d time.Duration, f func())

	mu       sync.Mutex
	fieldIDs map[string]string
}

func NewEngine(cfg Config, d Deps) *Engine {
	cfg = cfg.withDefaults()

	store := memory.New()
	markers := NewMarkerSynchronizer(store, d.Surface, d.Images, d.Log)
	search := NewProviderSearch(d.Places, store, markers, cfg.SearchRadius, cfg.Categories, d.Log)
	ingestor := NewSubmissionIngestor(d.Source, store, markers, search, d.Log)
	viewport := NewViewportController(d.Geo, ingestor, search, markers,
		cfg.Throttle, cfg.MinZoom, cfg.StartZoom, d.Log)

	return &Engine{
		cfg:      cfg,
		store:    store,
		markers:  markers,
		search:   search,
		ingestor: ingestor,
		viewport: viewport,
		geo:      d.Geo,
		meta:     d.Meta,
		form:     d.Form,
		shell:    d.Shell,
		log:      d.Log,
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Store exposes the record store for read paths.
func (e *Engine) Store() *memory.Store { return e.store }

// Start resolves the form field ids, then settles the initial viewport:
// the reference city seeds from the starting center and the first
// nearby search runs. Field-id failure is tolerated; pre-fill paths then
// fail and recover through the delayed refresh.
func (e *Engine) Start(ctx context.Context, center domain.Coordinate, zoom int) {
	if e.meta != nil {
		ids, err := e.meta.FormFieldIDs(ctx)
		if err != nil {
			e.log.Warn().Err(err).Msg("form field ids unavailable")
		} else {
			e.mu.Lock()
			e.fieldIDs = ids
			e.mu.Unlock()
		}
	}
	e.viewport.SeedZoom(zoom)
	e.viewport.Initialize(ctx, center)
}

// CenterChanged forwards a map center event; dropped inside the
// throttle window.
func (e *Engine) CenterChanged(ctx context.Context, center domain.Coordinate) bool {
	return e.viewport.CenterChanged(ctx, center)
}

// ZoomChanged forwards a zoom event; dropped inside the throttle window.
func (e *Engine) ZoomChanged(zoom int) bool {
	return e.viewport.ZoomChanged(zoom)
}

// MarkerClicked opens the clicked record's info window and pans to it.
// providerIndex is the back-reference the surface stored at creation.
func (e *Engine) MarkerClicked(providerIndex int) {
	e.markers.Open(providerIndex)
}

// SearchSelected merges a place chosen in the search box; its info
// window auto-opens once the marker is drawn.
func (e *Engine) SearchSelected(p domain.ProviderPlace) {
	e.search.AcceptSelection(p)
}

// RouteChanged dispatches a hash route: "#form/N" opens the review form
// for provider place N, "#reviews/N" opens the reviews panel for merged
// place N, anything else closes the overlays.
func (e *Engine) RouteChanged(ctx context.Context, route string) {
	parts := strings.Split(route, "/")
	if len(parts) == 2 {
		idx, err := strconv.Atoi(parts[1])
		if err == nil {
			switch parts[0] {
			case "#form":
				e.openReviewForm(ctx, idx)
				return
			case "#reviews":
				e.openReviewsPanel(idx)
				return
			}
		}
	}
	if e.shell != nil {
		e.shell.CloseOverlays()
	}
}

// openReviewForm pre-fills the embedded review form for a provider
// place: name, reverse-geocoded address parts, and the provider id, all
// marked read-only. A fill failure (cross-origin content not ready yet)
// schedules a full refresh instead of retrying the fill in place.
func (e *Engine) openReviewForm(ctx context.Context, providerIndex int) {
	gp, ok := e.store.ProviderPlace(providerIndex)
	if !ok || e.form == nil {
		return
	}
	addr, err := e.geo.ReverseGeocode(ctx, gp.Coordinate)
	if err != nil {
		e.log.Warn().Err(err).Msg("reverse geocode for form failed")
		return
	}

	e.mu.Lock()
	ids := e.fieldIDs
	e.mu.Unlock()
	placeID, addressID, providerID := ids["place"], ids["address"], ids["googleplaceid"]

	fills := []struct{ field, value string }{
		{placeID, gp.Name},
		{addressID + "-address", addr.Street},
		{addressID + "-city", addr.City},
		{addressID + "-state", addr.State},
		{addressID + "-zip", addr.Zip},
		{providerID, gp.ID},
	}
	for _, f := range fills {
		if err := e.form.Fill(f.field, f.value); err != nil {
			e.log.Warn().Err(err).Msg("form fill failed, scheduling refresh")
			e.schedule(e.cfg.FillRetryDelay, func() { e.refreshAll(context.Background()) })
			return
		}
	}
	for _, field := range []string{placeID, addressID + "-address",
		addressID + "-city", addressID + "-state", addressID + "-zip"} {
		if err := e.form.SetReadOnly(field); err != nil {
			e.log.Warn().Err(err).Msg("form lock failed, scheduling refresh")
			e.schedule(e.cfg.FillRetryDelay, func() { e.refreshAll(context.Background()) })
			return
		}
	}
}

func (e *Engine) openReviewsPanel(placeIndex int) {
	place, ok := e.store.Place(placeIndex)
	if !ok || e.shell == nil {
		return
	}
	e.shell.ShowReviewsPanel(ReviewsPanelFor(place))
}

// refreshAll is the fill-failure recovery: close everything and re-run
// the reference city's refresh. Merges are idempotent, so reapplying
// already-seen rows is harmless.
func (e *Engine) refreshAll(ctx context.Context) {
	e.markers.CloseInfoWindows()
	if e.shell != nil {
		e.shell.CloseOverlays()
	}
	e.ingestor.RefreshCity(ctx, e.viewport.ReferenceCity())
}
