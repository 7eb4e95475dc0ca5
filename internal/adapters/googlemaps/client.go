// Package googlemaps is the HTTP client for the mapping provider's
// places and geocoding web services. It implements the PlacesService
// and Geocoder ports; the map rendering SDK itself stays a black box.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"placemap/internal/adapters/observability"
	"placemap/internal/domain"
)

// ErrStatus reports a non-success provider status other than zero
// results (which is an empty sequence, not an error).
type ErrStatus struct{ Status string }

func (e *ErrStatus) Error() string { return "googlemaps: status " + e.Status }

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type wirePlace struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	Vicinity         string `json:"vicinity"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (w wirePlace) toDomain() domain.ProviderPlace {
	return domain.ProviderPlace{
		ID:               w.PlaceID,
		Name:             w.Name,
		Coordinate:       domain.Coordinate{Lat: w.Geometry.Location.Lat, Lng: w.Geometry.Location.Lng},
		FormattedAddress: w.FormattedAddress,
		Vicinity:         w.Vicinity,
	}
}

// NearbySearch returns the places around center within radius meters,
// restricted to the given categories. Zero results is an empty slice.
func (c *Client) NearbySearch(ctx context.Context, center domain.Coordinate, radius int, categories []string) ([]domain.ProviderPlace, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lng))
	q.Set("radius", fmt.Sprintf("%d", radius))
	if len(categories) > 0 {
		q.Set("types", strings.Join(categories, "|"))
	}

	var out struct {
		Status  string      `json:"status"`
		Results []wirePlace `json:"results"`
	}
	if err := c.get(ctx, "/place/nearbysearch/json", q, &out); err != nil {
		return nil, err
	}
	if out.Status == statusZeroResults {
		return nil, nil
	}
	if out.Status != statusOK {
		return nil, &ErrStatus{Status: out.Status}
	}
	places := make([]domain.ProviderPlace, 0, len(out.Results))
	for _, r := range out.Results {
		places = append(places, r.toDomain())
	}
	return places, nil
}

// PlaceDetails fetches one place by provider id.
func (c *Client) PlaceDetails(ctx context.Context, providerPlaceID string) (domain.ProviderPlace, error) {
	q := url.Values{}
	q.Set("placeid", providerPlaceID)

	var out struct {
		Status string    `json:"status"`
		Result wirePlace `json:"result"`
	}
	if err := c.get(ctx, "/place/details/json", q, &out); err != nil {
		return domain.ProviderPlace{}, err
	}
	if out.Status != statusOK {
		return domain.ProviderPlace{}, &ErrStatus{Status: out.Status}
	}
	return out.Result.toDomain(), nil
}

type wireGeocodeResult struct {
	Types             []string `json:"types"`
	AddressComponents []struct {
		ShortName string   `json:"short_name"`
		Types     []string `json:"types"`
	} `json:"address_components"`
}

// ReverseGeocode decomposes a coordinate into address parts, picking
// the street from the street_address result and the city, state, zip
// and country from their dedicated result types.
func (c *Client) ReverseGeocode(ctx context.Context, coord domain.Coordinate) (domain.Address, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", coord.Lat, coord.Lng))

	var out struct {
		Status  string              `json:"status"`
		Results []wireGeocodeResult `json:"results"`
	}
	if err := c.get(ctx, "/geocode/json", q, &out); err != nil {
		return domain.Address{}, err
	}
	if out.Status == statusZeroResults {
		return domain.Address{}, nil
	}
	if out.Status != statusOK {
		return domain.Address{}, &ErrStatus{Status: out.Status}
	}

	var addr domain.Address
	for _, res := range out.Results {
		if len(res.Types) == 0 || len(res.AddressComponents) == 0 {
			continue
		}
		comp := res.AddressComponents
		switch res.Types[0] {
		case "street_address":
			if len(comp) >= 2 {
				addr.Street = comp[0].ShortName + " " + comp[1].ShortName
			}
			if len(comp) >= 3 {
				addr.City = comp[2].ShortName
			}
		case "locality":
			addr.City = comp[0].ShortName
		case "postal_code":
			addr.Zip = comp[0].ShortName
		case "administrative_area_level_1":
			addr.State = comp[0].ShortName
		case "country":
			addr.Country = comp[0].ShortName
		}
	}
	return addr, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	q.Set("key", c.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("googlemaps", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("googlemaps: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
