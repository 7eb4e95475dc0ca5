package app

import (
	"context"

	"github.com/rs/zerolog"

	"placemap/internal/adapters/observability"
	"placemap/internal/domain"
	"placemap/internal/storage/memory"
)

// ProviderSearch normalizes the provider's multi-result nearby search and
// single-result details/selection flows into one merge path. Failed and
// zero-result calls are dropped without creating records; the counters
// keep that visible to operators.
type ProviderSearch struct {
	svc        domain.PlacesService
	store      *memory.Store
	markers    *MarkerSynchronizer
	radius     int
	categories []string
	log        zerolog.Logger
}

func NewProviderSearch(svc domain.PlacesService, store *memory.Store, markers *MarkerSynchronizer, radius int, categories []string, log zerolog.Logger) *ProviderSearch {
	return &ProviderSearch{
		svc:        svc,
		store:      store,
		markers:    markers,
		radius:     radius,
		categories: categories,
		log:        log,
	}
}

// SearchNearby merges every result of a nearby search around center.
// Returns how many results were new to the store.
func (a *ProviderSearch) SearchNearby(ctx context.Context, center domain.Coordinate) int {
	results, err := a.svc.NearbySearch(ctx, center, a.radius, a.categories)
	if err != nil {
		observability.ObserveMerge("provider_error")
		a.log.Warn().Err(err).Msg("nearby search failed")
		return 0
	}
	if len(results) == 0 {
		observability.ObserveMerge("provider_empty")
		return 0
	}
	fresh := 0
	for _, p := range results {
		if a.accept(p, false) {
			fresh++
		}
	}
	return fresh
}

// ResolveDetails fetches one provider record by id and merges it. Used
// when a merged place carries a provider id the store has not seen.
func (a *ProviderSearch) ResolveDetails(ctx context.Context, providerPlaceID string, openOnArrival bool) {
	p, err := a.svc.PlaceDetails(ctx, providerPlaceID)
	if err != nil {
		observability.ObserveMerge("provider_error")
		a.log.Warn().Err(err).Str("provider_id", providerPlaceID).Msg("place details failed")
		return
	}
	a.accept(p, openOnArrival)
}

// AcceptSelection merges a place the user chose in the search box and
// auto-opens its info window once the marker is drawn.
func (a *ProviderSearch) AcceptSelection(p domain.ProviderPlace) {
	a.markers.CloseInfoWindows()
	a.accept(p, true)
}

func (a *ProviderSearch) accept(p domain.ProviderPlace, openOnArrival bool) bool {
	res := a.store.MergeProviderPlace(p)
	if !res.IsNew {
		observability.ObserveMerge("provider_duplicate")
		return false
	}
	observability.ObserveMerge("provider_place")
	a.markers.SyncProviderPlace(res.Index, openOnArrival)
	if res.ResolvedPlace >= 0 {
		// A pending merged place just gained its coordinate.
		a.markers.SyncPlace(res.ResolvedPlace)
	}
	return true
}
