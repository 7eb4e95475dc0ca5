package app_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"placemap/internal/app"
	"placemap/internal/domain"
	"placemap/internal/storage/memory"
)

type ingestorFixture struct {
	ing     *app.SubmissionIngestor
	store   *memory.Store
	source  *fakeSource
	places  *fakePlaces
	surface *fakeSurface
}

func newIngestorFixture(t *testing.T) *ingestorFixture {
	t.Helper()
	store := memory.New()
	surface := &fakeSurface{}
	source := &fakeSource{}
	places := &fakePlaces{details: map[string]domain.ProviderPlace{}}

	log := zerolog.Nop()
	markers := app.NewMarkerSynchronizer(store, surface, &fakeImages{}, log)
	search := app.NewProviderSearch(places, store, markers, 1000, []string{"food"}, log)
	ing := app.NewSubmissionIngestor(source, store, markers, search, log)
	return &ingestorFixture{ing: ing, store: store, source: source, places: places, surface: surface}
}

func TestRefreshCityMarksOncePerPlace(t *testing.T) {
	f := newIngestorFixture(t)
	f.store.MergeProviderPlace(provider("g1"))
	f.source.rows = []domain.Submission{
		sub("s1", "g1", 4),
		sub("s2", "g1", 5),
		sub("s3", "g1", 3),
	}

	f.ing.RefreshCity(context.Background(), "Indianapolis")

	var form int
	for _, m := range f.surface.markers {
		if strings.HasPrefix(m.opts.IconURL, "/icon/") {
			form++
		}
	}
	if form != 1 {
		t.Fatalf("form markers drawn = %d, want 1 per changed place", form)
	}
	place, _, _ := f.store.PlaceByProviderID("g1")
	if place.ReviewCount() != 3 {
		t.Errorf("reviews merged = %d, want 3", place.ReviewCount())
	}
}

func TestRefreshCityResolvesUnknownProviderIDs(t *testing.T) {
	f := newIngestorFixture(t)
	f.places.details["g9"] = provider("g9")
	f.source.rows = []domain.Submission{sub("s1", "g9", 4)}

	f.ing.RefreshCity(context.Background(), "Indianapolis")

	if f.places.detailsCalls != 1 {
		t.Fatalf("details calls = %d, want 1", f.places.detailsCalls)
	}
	place, _, ok := f.store.PlaceByProviderID("g9")
	if !ok {
		t.Fatal("merged place missing")
	}
	if place.Coordinate == nil {
		t.Fatal("coordinate should be backfilled from the details fetch")
	}
}

func TestRefreshCityRepeatedRowsAreNoOps(t *testing.T) {
	f := newIngestorFixture(t)
	f.store.MergeProviderPlace(provider("g1"))
	f.source.rows = []domain.Submission{sub("s1", "g1", 4)}

	f.ing.RefreshCity(context.Background(), "Indianapolis")
	before := len(f.surface.markers)

	f.ing.RefreshCity(context.Background(), "Indianapolis")

	if len(f.surface.markers) != before {
		t.Errorf("re-delivered rows redrew markers: %d -> %d", before, len(f.surface.markers))
	}
	place, _, _ := f.store.PlaceByProviderID("g1")
	if place.ReviewCount() != 1 {
		t.Errorf("reviews = %d, want 1", place.ReviewCount())
	}
}

func TestRefreshCityFetchFailureDoesNothing(t *testing.T) {
	f := newIngestorFixture(t)
	f.source.err = errUpstream

	f.ing.RefreshCity(context.Background(), "Indianapolis")

	if f.store.PlaceCount() != 0 {
		t.Errorf("places = %d, want 0 after failed fetch", f.store.PlaceCount())
	}
	if len(f.surface.markers) != 0 {
		t.Errorf("markers = %d, want 0", len(f.surface.markers))
	}
}

func TestRefreshCityRowWithoutProviderIDStaysUndrawn(t *testing.T) {
	f := newIngestorFixture(t)
	f.source.rows = []domain.Submission{sub("s1", "", 4)}

	f.ing.RefreshCity(context.Background(), "Indianapolis")

	if f.store.PlaceCount() != 1 {
		t.Fatalf("places = %d, want 1", f.store.PlaceCount())
	}
	if len(f.surface.markers) != 0 {
		t.Errorf("a place with no coordinate must not be drawn, markers = %d", len(f.surface.markers))
	}
	if f.places.detailsCalls != 0 {
		t.Errorf("no provider id means no details fetch, calls = %d", f.places.detailsCalls)
	}
}
