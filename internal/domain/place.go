package domain

type Coordinate struct {
	Lat, Lng float64
}

// Address is the decomposed result of a reverse geocode.
type Address struct {
	Street  string
	City    string
	State   string
	Zip     string
	Country string
}

// ProviderPlace is a raw place record from the mapping provider.
// Immutable once stored; at most one per ProviderPlaceID in a session.
type ProviderPlace struct {
	ID               string
	Name             string
	Coordinate       Coordinate
	FormattedAddress string
	Vicinity         string
}

// MergedPlace reconciles review submissions with a provider record.
// Coordinate stays nil until the matching provider record is seen.
type MergedPlace struct {
	Name            string
	Address         string
	ProviderPlaceID string
	Coordinate      *Coordinate
	Reviews         []Review
}

// ReviewCount is the number the form marker icon encodes.
func (p MergedPlace) ReviewCount() int { return len(p.Reviews) }
