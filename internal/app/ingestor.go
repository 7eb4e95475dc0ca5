package app

import (
	"context"

	"github.com/rs/zerolog"

	"placemap/internal/adapters/observability"
	"placemap/internal/domain"
	"placemap/internal/storage/memory"
)

// SubmissionIngestor fetches review submissions for a city and folds
// each row into the store. A fetch failure degrades to an empty result;
// the next viewport settle retries naturally.
type SubmissionIngestor struct {
	src     domain.SubmissionSource
	store   *memory.Store
	markers *MarkerSynchronizer
	search  *ProviderSearch
	log     zerolog.Logger
}

func NewSubmissionIngestor(src domain.SubmissionSource, store *memory.Store, markers *MarkerSynchronizer, search *ProviderSearch, log zerolog.Logger) *SubmissionIngestor {
	return &SubmissionIngestor{src: src, store: store, markers: markers, search: search, log: log}
}

// RefreshCity merges every submission for city (empty city means all
// places). Marker work runs once per changed place, not once per review.
// Rows naming a provider id the store has not resolved yet queue a
// one-shot details fetch; the place stays undrawn until it resolves.
func (in *SubmissionIngestor) RefreshCity(ctx context.Context, city string) {
	rows, err := in.src.SubmissionsForCity(ctx, city)
	if err != nil {
		in.log.Warn().Err(err).Str("city", city).Msg("submissions fetch failed")
		return
	}

	changed := make(map[int]struct{})
	unresolved := make(map[string]struct{})

	for _, row := range rows {
		res := in.store.MergeSubmission(row)
		switch {
		case res.IsNewPlace:
			observability.ObserveMerge("place_created")
		case res.IsNewReview:
			observability.ObserveMerge("review_appended")
		default:
			observability.ObserveMerge("review_duplicate")
			continue
		}
		changed[res.Index] = struct{}{}
		if res.IsNewPlace && row.ProviderPlaceID != "" && res.Place.Coordinate == nil {
			unresolved[row.ProviderPlaceID] = struct{}{}
		}
	}

	for idx := range changed {
		in.markers.SyncPlace(idx) // no-op while the coordinate is pending
	}
	for id := range unresolved {
		in.search.ResolveDetails(ctx, id, false)
	}

	in.log.Info().
		Str("city", city).
		Int("rows", len(rows)).
		Int("places_changed", len(changed)).
		Msg("city refresh merged")
}
