package app

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"placemap/internal/adapters/observability"
	"placemap/internal/domain"
	"placemap/internal/storage/memory"
)

// Form marker icons are half the 66x96 source bitmap.
const (
	formIconW = 33
	formIconH = 48

	// Review counts above this render as 99 on the pin.
	maxIconCount = 99

	// Form markers stack above every name marker.
	formMarkerZBase = 1000
)

// MarkerSynchronizer keeps exactly one form marker per merged place with
// a coordinate and one name marker per provider place, plus their info
// windows. It owns the marker-to-record index; clicks arrive back from
// the shell carrying the provider index stashed in MarkerOptions.
type MarkerSynchronizer struct {
	store   *memory.Store
	surface domain.MapSurface
	images  domain.ImageLoader
	log     zerolog.Logger

	mu          sync.Mutex
	formMarkers map[int]domain.Marker     // by merged place index
	nameMarkers map[int]domain.Marker     // by provider place index
	infoWindows map[int]domain.InfoWindow // by provider place index
	nameVisible bool
}

func NewMarkerSynchronizer(store *memory.Store, surface domain.MapSurface, images domain.ImageLoader, log zerolog.Logger) *MarkerSynchronizer {
	return &MarkerSynchronizer{
		store:       store,
		surface:     surface,
		images:      images,
		log:         log,
		formMarkers: make(map[int]domain.Marker),
		nameMarkers: make(map[int]domain.Marker),
		infoWindows: make(map[int]domain.InfoWindow),
		nameVisible: true,
	}
}

// SyncPlace (re)creates the form marker for a merged place. A place
// without a resolved coordinate is not drawn. The prior marker for the
// same place is detached first so the map never shows duplicate pins.
func (s *MarkerSynchronizer) SyncPlace(placeIndex int) {
	place, ok := s.store.Place(placeIndex)
	if !ok || place.Coordinate == nil {
		return
	}

	count := place.ReviewCount()
	if count > maxIconCount {
		count = maxIconCount
	}

	clickIndex := -1
	if place.ProviderPlaceID != "" {
		if gi, ok := s.store.ProviderIndex(place.ProviderPlaceID); ok {
			clickIndex = gi
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.formMarkers[placeIndex]; ok {
		old.Remove()
	}
	s.formMarkers[placeIndex] = s.surface.AddMarker(domain.MarkerOptions{
		Position:   *place.Coordinate,
		IconURL:    fmt.Sprintf("/icon/%d", count),
		IconW:      formIconW,
		IconH:      formIconH,
		ZIndex:     formMarkerZBase + placeIndex,
		Attached:   true,
		ClickIndex: clickIndex,
	})
	observability.ObserveMarker("form", "sync")

	// The rating line changed, so the bound info window is stale.
	if clickIndex >= 0 {
		s.rebuildInfoWindowLocked(clickIndex)
	}
}

// SyncProviderPlace requests the name-bubble asset for a provider place
// and creates its marker once the bitmap has loaded. Load failure is
// terminal: no marker, no retry. openOnArrival opens the info window as
// soon as the marker exists.
func (s *MarkerSynchronizer) SyncProviderPlace(providerIndex int, openOnArrival bool) {
	gp, ok := s.store.ProviderPlace(providerIndex)
	if !ok {
		return
	}

	assetURL := bubbleAssetURL(gp.Name)
	s.images.Load(assetURL,
		func(asset domain.ImageAsset) {
			s.attachNameMarker(providerIndex, gp, asset, openOnArrival)
		},
		func(err error) {
			observability.ObserveMarker("name", "asset_failed")
			s.log.Debug().Err(err).Str("place", gp.Name).Msg("bubble asset load failed")
		})
}

func (s *MarkerSynchronizer) attachNameMarker(providerIndex int, gp domain.ProviderPlace, asset domain.ImageAsset, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nameMarkers[providerIndex]; exists {
		return
	}
	s.nameMarkers[providerIndex] = s.surface.AddMarker(domain.MarkerOptions{
		Position:   gp.Coordinate,
		IconURL:    asset.URL,
		IconW:      asset.Width / 2,
		IconH:      asset.Height / 2,
		ZIndex:     providerIndex,
		Attached:   s.nameVisible,
		ClickIndex: providerIndex,
	})
	observability.ObserveMarker("name", "sync")
	s.rebuildInfoWindowLocked(providerIndex)

	if open {
		s.openLocked(providerIndex)
	}
}

// Open closes every info window, opens the record's own, and pans the
// map to its name marker.
func (s *MarkerSynchronizer) Open(providerIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openLocked(providerIndex)
}

func (s *MarkerSynchronizer) openLocked(providerIndex int) {
	for _, iw := range s.infoWindows {
		iw.Close()
	}
	marker, ok := s.nameMarkers[providerIndex]
	if !ok {
		return
	}
	s.surface.PanTo(marker.Position())
	if iw, ok := s.infoWindows[providerIndex]; ok {
		iw.Open(marker)
	}
}

// SetNameMarkersVisible attaches or detaches every name marker. Markers
// are kept, not destroyed, so restoring is one pass over the index.
func (s *MarkerSynchronizer) SetNameMarkersVisible(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameVisible == show {
		return
	}
	s.nameVisible = show
	for _, m := range s.nameMarkers {
		m.SetAttached(show)
	}
}

// CloseInfoWindows closes every open info window.
func (s *MarkerSynchronizer) CloseInfoWindows() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, iw := range s.infoWindows {
		iw.Close()
	}
}

func (s *MarkerSynchronizer) rebuildInfoWindowLocked(providerIndex int) {
	gp, ok := s.store.ProviderPlace(providerIndex)
	if !ok {
		return
	}
	var placePtr *domain.MergedPlace
	placeIndex := -1
	if place, idx, ok := s.store.PlaceByProviderID(gp.ID); ok {
		placePtr, placeIndex = &place, idx
	}
	if old, ok := s.infoWindows[providerIndex]; ok {
		old.Close()
	}
	s.infoWindows[providerIndex] = s.surface.NewInfoWindow(
		InfoViewFor(gp, providerIndex, placePtr, placeIndex))
}

// bubbleAssetURL builds the text-bubble endpoint path for a place name.
// Slashes would split the route, so they become spaces before escaping.
func bubbleAssetURL(name string) string {
	return "/text/" + url.PathEscape(strings.ReplaceAll(name, "/", " "))
}
