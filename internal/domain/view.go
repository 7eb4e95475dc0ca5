package domain

// View descriptions handed to the UI shell. The engine never assembles
// markup; the shell decides how these render.

// InfoView is the content of a marker's info window.
type InfoView struct {
	Title   string
	Address string
	// Rating is present only when a MergedPlace matches the provider record.
	Rating    *RatingView
	FormRoute string // "#form/N" where N is the provider place index
}

// RatingView is the aggregate rating line inside an info window.
type RatingView struct {
	Average      string // two significant digits, e.g. "4.5"
	Stars        string // "★★★★☆"
	ReviewCount  int
	ReviewsRoute string // "#reviews/N" where N is the merged place index
}

// ReviewsPanel is the expanded reviews view for one merged place.
type ReviewsPanel struct {
	PlaceName    string
	PlaceAddress string
	Average      string
	Stars        string
	ReviewCount  int
	Reviews      []ReviewView
}

// ReviewView is a single rendered review entry.
type ReviewView struct {
	Author string
	Date   string
	Stars  string
	Text   string // may embed simple markup from the form backend
}
