package app_test

import (
	"context"
	"errors"
	"sync"

	"placemap/internal/domain"
)

// ---- fakes shared across the package tests ----

var (
	errAssetLoad    = errors.New("asset load failed")
	errFormNotReady = errors.New("form frame not ready")
	errUpstream     = errors.New("upstream unavailable")
)

type fakeMarker struct {
	mu       sync.Mutex
	opts     domain.MarkerOptions
	attached bool
	removed  bool
}

func (m *fakeMarker) SetAttached(attached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attached = attached
}

func (m *fakeMarker) Remove() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = true
	m.attached = false
}

func (m *fakeMarker) Position() domain.Coordinate { return m.opts.Position }

func (m *fakeMarker) isAttached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attached
}

func (m *fakeMarker) isRemoved() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removed
}

type fakeInfoWindow struct {
	view    domain.InfoView
	opens   int
	closes  int
	anchors []domain.Marker
}

func (w *fakeInfoWindow) Open(anchor domain.Marker) {
	w.opens++
	w.anchors = append(w.anchors, anchor)
}

func (w *fakeInfoWindow) Close() { w.closes++ }

type fakeSurface struct {
	mu      sync.Mutex
	markers []*fakeMarker
	windows []*fakeInfoWindow
	panned  []domain.Coordinate
}

func (s *fakeSurface) AddMarker(o domain.MarkerOptions) domain.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &fakeMarker{opts: o, attached: o.Attached}
	s.markers = append(s.markers, m)
	return m
}

func (s *fakeSurface) NewInfoWindow(v domain.InfoView) domain.InfoWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := &fakeInfoWindow{view: v}
	s.windows = append(s.windows, w)
	return w
}

func (s *fakeSurface) PanTo(c domain.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panned = append(s.panned, c)
}

func (s *fakeSurface) attachedMarkers() []*fakeMarker {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeMarker
	for _, m := range s.markers {
		if m.isAttached() {
			out = append(out, m)
		}
	}
	return out
}

// fakeImages completes loads synchronously. fail switches every Load to
// the failure callback; pending holds callbacks when deferred is set, so
// tests can model a bitmap that arrives later.
type fakeImages struct {
	fail     bool
	deferred bool
	pending  []func()
}

func (f *fakeImages) Load(url string, onLoad func(domain.ImageAsset), onFail func(error)) {
	run := func() {
		if f.fail {
			onFail(errAssetLoad)
			return
		}
		onLoad(domain.ImageAsset{URL: url, Width: 120, Height: 84})
	}
	if f.deferred {
		f.pending = append(f.pending, run)
		return
	}
	run()
}

func (f *fakeImages) flush() {
	for _, run := range f.pending {
		run()
	}
	f.pending = nil
}

type fakeSource struct {
	rows  []domain.Submission
	err   error
	calls int
}

func (f *fakeSource) SubmissionsForCity(ctx context.Context, city string) ([]domain.Submission, error) {
	f.calls++
	return f.rows, f.err
}

type fakePlaces struct {
	nearby     []domain.ProviderPlace
	nearbyErr  error
	details    map[string]domain.ProviderPlace
	detailsErr error

	nearbyCalls  int
	detailsCalls int
}

func (f *fakePlaces) NearbySearch(ctx context.Context, center domain.Coordinate, radius int, categories []string) ([]domain.ProviderPlace, error) {
	f.nearbyCalls++
	return f.nearby, f.nearbyErr
}

func (f *fakePlaces) PlaceDetails(ctx context.Context, id string) (domain.ProviderPlace, error) {
	f.detailsCalls++
	if f.detailsErr != nil {
		return domain.ProviderPlace{}, f.detailsErr
	}
	p, ok := f.details[id]
	if !ok {
		return domain.ProviderPlace{}, errUpstream
	}
	return p, nil
}

type fakeGeo struct {
	addr  domain.Address
	err   error
	calls int
}

func (f *fakeGeo) ReverseGeocode(ctx context.Context, c domain.Coordinate) (domain.Address, error) {
	f.calls++
	return f.addr, f.err
}

type fakeForm struct {
	fills    map[string]string
	readOnly []string
	failFill bool
}

func (f *fakeForm) Fill(fieldID, value string) error {
	if f.failFill {
		return errFormNotReady
	}
	if f.fills == nil {
		f.fills = map[string]string{}
	}
	f.fills[fieldID] = value
	return nil
}

func (f *fakeForm) SetReadOnly(fieldID string) error {
	if f.failFill {
		return errFormNotReady
	}
	f.readOnly = append(f.readOnly, fieldID)
	return nil
}

type fakeShell struct {
	panels []domain.ReviewsPanel
	closes int
}

func (f *fakeShell) ShowReviewsPanel(v domain.ReviewsPanel) { f.panels = append(f.panels, v) }
func (f *fakeShell) CloseOverlays()                         { f.closes++ }

type fakeMeta struct {
	ids map[string]string
	err error
}

func (f *fakeMeta) FormFieldIDs(ctx context.Context) (map[string]string, error) {
	return f.ids, f.err
}
