package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"placemap/internal/domain"
)

// ViewportController converts the map's continuous center and zoom event
// streams into discrete, throttled actions. Each stream has its own
// gate: a rate.Limiter with burst 1 queried with Allow, which drops
// events arriving inside the window instead of delaying them.
type ViewportController struct {
	geo      domain.Geocoder
	ingestor *SubmissionIngestor
	search   *ProviderSearch
	markers  *MarkerSynchronizer
	log      zerolog.Logger

	centerGate *rate.Limiter
	zoomGate   *rate.Limiter
	minZoom    int

	mu      sync.Mutex
	zoom    int
	refCity string
}

func NewViewportController(geo domain.Geocoder, ingestor *SubmissionIngestor, search *ProviderSearch, markers *MarkerSynchronizer, interval time.Duration, minZoom, startZoom int, log zerolog.Logger) *ViewportController {
	return &ViewportController{
		geo:        geo,
		ingestor:   ingestor,
		search:     search,
		markers:    markers,
		log:        log,
		centerGate: rate.NewLimiter(rate.Every(interval), 1),
		zoomGate:   rate.NewLimiter(rate.Every(interval), 1),
		minZoom:    minZoom,
		zoom:       startZoom,
	}
}

// Initialize seeds the reference city from the starting center and runs
// the first nearby search, bypassing the gates.
func (v *ViewportController) Initialize(ctx context.Context, center domain.Coordinate) {
	v.settleCenter(ctx, center)
}

// SeedZoom sets the starting zoom level without touching the zoom gate,
// so the first real zoom event still passes.
func (v *ViewportController) SeedZoom(zoom int) {
	v.applyZoom(zoom)
}

// CenterChanged handles one center event. Returns false when the event
// fell inside the throttle window and was dropped.
func (v *ViewportController) CenterChanged(ctx context.Context, center domain.Coordinate) bool {
	return v.CenterChangedAt(ctx, center, time.Now())
}

// CenterChangedAt is CenterChanged with an explicit event time.
func (v *ViewportController) CenterChangedAt(ctx context.Context, center domain.Coordinate, at time.Time) bool {
	if !v.centerGate.AllowN(at, 1) {
		return false
	}
	v.settleCenter(ctx, center)
	return true
}

// ZoomChanged handles one zoom event under the zoom gate.
func (v *ViewportController) ZoomChanged(zoom int) bool {
	return v.ZoomChangedAt(zoom, time.Now())
}

// ZoomChangedAt is ZoomChanged with an explicit event time.
func (v *ViewportController) ZoomChangedAt(zoom int, at time.Time) bool {
	if !v.zoomGate.AllowN(at, 1) {
		return false
	}
	v.applyZoom(zoom)
	return true
}

func (v *ViewportController) applyZoom(zoom int) {
	v.mu.Lock()
	v.zoom = zoom
	v.mu.Unlock()
	v.markers.SetNameMarkersVisible(zoom >= v.minZoom)
}

// Zoom is the last processed zoom level.
func (v *ViewportController) Zoom() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// ReferenceCity is the city derived from the last settled center.
func (v *ViewportController) ReferenceCity() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refCity
}

func (v *ViewportController) settleCenter(ctx context.Context, center domain.Coordinate) {
	addr, err := v.geo.ReverseGeocode(ctx, center)
	if err != nil {
		v.log.Warn().Err(err).Msg("reverse geocode failed")
	} else if addr.City != "" {
		v.setReferenceCity(ctx, addr.City)
	}
	// Wide-area searches below the zoom threshold would flood the
	// provider, so nearby search is skipped entirely there.
	if v.Zoom() >= v.minZoom {
		v.search.SearchNearby(ctx, center)
	}
}

func (v *ViewportController) setReferenceCity(ctx context.Context, city string) {
	v.mu.Lock()
	if city == v.refCity {
		v.mu.Unlock()
		return
	}
	v.refCity = city
	v.mu.Unlock()

	v.log.Info().Str("city", city).Msg("reference city changed")
	v.ingestor.RefreshCity(ctx, city)
}
