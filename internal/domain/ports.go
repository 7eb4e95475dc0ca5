package domain

import "context"

// SubmissionSource delivers review submissions for a city. An empty city
// means "all places". Implementations may serve from a cache.
type SubmissionSource interface {
	SubmissionsForCity(ctx context.Context, city string) ([]Submission, error)
}

// FormMetadata resolves the form backend's logical field names
// ("place", "address", "googleplaceid", ...) to backend field ids.
// Fetched once at startup before any form pre-fill.
type FormMetadata interface {
	FormFieldIDs(ctx context.Context) (map[string]string, error)
}

// PlacesService wraps the mapping provider's places operations.
// A zero-result search returns an empty slice and no error.
type PlacesService interface {
	NearbySearch(ctx context.Context, center Coordinate, radius int, categories []string) ([]ProviderPlace, error)
	PlaceDetails(ctx context.Context, providerPlaceID string) (ProviderPlace, error)
}

// Geocoder resolves a coordinate to a decomposed address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, c Coordinate) (Address, error)
}

// Marker is a handle to one visual marker on the map surface.
type Marker interface {
	// SetAttached shows or hides the marker without destroying it.
	SetAttached(attached bool)
	// Remove detaches the marker permanently (used when replacing it).
	Remove()
	Position() Coordinate
}

// MarkerOptions describes a marker to be created. ClickIndex is the
// provider place index a click on this marker reports back with, or -1
// when the record has no provider place.
type MarkerOptions struct {
	Position   Coordinate
	IconURL    string
	IconW      int
	IconH      int
	ZIndex     int
	Attached   bool
	ClickIndex int
}

// InfoWindow is a popup bound to one record's content.
type InfoWindow interface {
	Open(anchor Marker)
	Close()
}

// MapSurface is the black-box map the synchronizer draws on.
type MapSurface interface {
	AddMarker(o MarkerOptions) Marker
	NewInfoWindow(v InfoView) InfoWindow
	PanTo(c Coordinate)
}

// ImageAsset is a loaded marker bitmap.
type ImageAsset struct {
	URL    string
	Width  int
	Height int
}

// ImageLoader loads marker bitmaps asynchronously. Exactly one of the two
// callbacks fires, possibly after Load returns.
type ImageLoader interface {
	Load(url string, onLoad func(ImageAsset), onFail func(error))
}

// FormSurface is the embedded review form the engine pre-fills. Fill
// fails while the cross-origin content is not yet accessible.
type FormSurface interface {
	Fill(fieldID, value string) error
	SetReadOnly(fieldID string) error
}

// UIShell receives the non-map views.
type UIShell interface {
	ShowReviewsPanel(v ReviewsPanel)
	CloseOverlays()
}

// Cache is the proxy layer's response cache.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
