package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"placemap/internal/app"
	"placemap/internal/domain"
)

type engineFixture struct {
	eng     *app.Engine
	source  *fakeSource
	places  *fakePlaces
	geo     *fakeGeo
	surface *fakeSurface
	form    *fakeForm
	shell   *fakeShell
	meta    *fakeMeta

	scheduled []func()
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		source:  &fakeSource{},
		places:  &fakePlaces{details: map[string]domain.ProviderPlace{}},
		geo:     &fakeGeo{addr: domain.Address{City: "Indianapolis", Street: "12 Oak St", State: "IN", Zip: "46250"}},
		surface: &fakeSurface{},
		form:    &fakeForm{},
		shell:   &fakeShell{},
		meta: &fakeMeta{ids: map[string]string{
			"place":         "f-place",
			"address":       "f-addr",
			"googleplaceid": "f-gpid",
		}},
	}
	f.eng = app.NewEngine(app.Config{}, app.Deps{
		Source:  f.source,
		Meta:    f.meta,
		Places:  f.places,
		Geo:     f.geo,
		Surface: f.surface,
		Images:  &fakeImages{},
		Form:    f.form,
		Shell:   f.shell,
		Log:     zerolog.Nop(),
	})
	f.eng.SetSchedule(func(d time.Duration, fn func()) { f.scheduled = append(f.scheduled, fn) })
	return f
}

func (f *engineFixture) start(t *testing.T) {
	t.Helper()
	f.places.nearby = []domain.ProviderPlace{provider("g1")}
	f.eng.Start(context.Background(), domain.Coordinate{Lat: 39.9, Lng: -86.1}, 17)
}

func TestStartSettlesCityAndSearches(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t)

	if f.source.calls != 1 {
		t.Errorf("submission fetches = %d, want 1", f.source.calls)
	}
	if f.places.nearbyCalls != 1 {
		t.Errorf("nearby searches = %d, want 1", f.places.nearbyCalls)
	}
	if f.eng.Store().ProviderPlaceCount() != 1 {
		t.Errorf("provider places = %d, want 1", f.eng.Store().ProviderPlaceCount())
	}
}

func TestRouteChangedOpensReviewForm(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t)

	f.eng.RouteChanged(context.Background(), "#form/0")

	want := map[string]string{
		"f-place":      "Corner Deli",
		"f-addr-city":  "Indianapolis",
		"f-addr-state": "IN",
		"f-addr-zip":   "46250",
		"f-gpid":       "g1",
	}
	for field, value := range want {
		if got := f.form.fills[field]; got != value {
			t.Errorf("fill %q = %q, want %q", field, got, value)
		}
	}
	if len(f.form.readOnly) != 5 {
		t.Errorf("read-only fields = %d, want 5", len(f.form.readOnly))
	}
	// The provider id stays writable so the backend receives it.
	for _, field := range f.form.readOnly {
		if field == "f-gpid" {
			t.Error("provider id field must not be locked")
		}
	}
}

func TestRouteChangedOpensReviewsPanel(t *testing.T) {
	f := newEngineFixture(t)
	f.source.rows = []domain.Submission{sub("s1", "g1", 4)}
	f.start(t)

	f.eng.RouteChanged(context.Background(), "#reviews/0")

	if len(f.shell.panels) != 1 {
		t.Fatalf("panels shown = %d, want 1", len(f.shell.panels))
	}
	if f.shell.panels[0].PlaceName != "Corner Deli" {
		t.Errorf("panel place = %q", f.shell.panels[0].PlaceName)
	}
}

func TestRouteChangedUnknownClosesOverlays(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t)

	for _, route := range []string{"", "#", "#form", "#form/x", "#other/1"} {
		f.eng.RouteChanged(context.Background(), route)
	}
	if f.shell.closes != 5 {
		t.Errorf("overlay closes = %d, want 5", f.shell.closes)
	}
}

func TestRouteChangedOutOfRangeIndexIsIgnored(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t)

	f.eng.RouteChanged(context.Background(), "#form/99")
	f.eng.RouteChanged(context.Background(), "#reviews/99")

	if len(f.form.fills) != 0 {
		t.Errorf("fills = %d, want 0", len(f.form.fills))
	}
	if len(f.shell.panels) != 0 {
		t.Errorf("panels = %d, want 0", len(f.shell.panels))
	}
}

func TestFillFailureSchedulesRefresh(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t)
	f.form.failFill = true

	f.eng.RouteChanged(context.Background(), "#form/0")
	if len(f.scheduled) != 1 {
		t.Fatalf("scheduled refreshes = %d, want 1", len(f.scheduled))
	}

	// The frame becomes ready before the deferred refresh runs.
	f.form.failFill = false
	before := f.source.calls
	f.scheduled[0]()

	if f.shell.closes == 0 {
		t.Error("refresh should close the overlays")
	}
	if f.source.calls != before+1 {
		t.Errorf("refresh should refetch the reference city, calls = %d", f.source.calls)
	}
}

func TestSearchSelectedOpensOnArrival(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t)

	p := provider("g2")
	p.Name = "New Pick"
	f.eng.SearchSelected(p)

	var opened int
	for _, w := range f.surface.windows {
		opened += w.opens
	}
	if opened != 1 {
		t.Fatalf("windows opened = %d, want 1", opened)
	}
	if f.eng.Store().ProviderPlaceCount() != 2 {
		t.Errorf("provider places = %d, want 2", f.eng.Store().ProviderPlaceCount())
	}
}

func TestMarkerClickedOpensWindow(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t)

	f.eng.MarkerClicked(0)

	if len(f.surface.panned) == 0 {
		t.Fatal("click should pan to the marker")
	}
}

func TestZoomBelowThresholdHidesNameMarkers(t *testing.T) {
	f := newEngineFixture(t)
	f.start(t)

	if len(f.surface.attachedMarkers()) == 0 {
		t.Fatal("expected attached name markers after start")
	}
	// Start only seeds the zoom; the first real event must pass the
	// gate even when it arrives immediately.
	if !f.eng.ZoomChanged(16) {
		t.Fatal("first zoom event after start was dropped")
	}
	if n := len(f.surface.attachedMarkers()); n != 0 {
		t.Errorf("attached markers below min zoom = %d, want 0", n)
	}
}
