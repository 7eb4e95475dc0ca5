package app

import (
	"fmt"
	"strconv"

	"placemap/internal/domain"
)

// Pure view builders. The engine hands these descriptions to the UI
// shell; nothing in here touches the map surface or the network.

// Stars renders a full/empty star string, e.g. Stars(3, 5) == "★★★☆☆".
func Stars(n, max int) string {
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	out := make([]rune, 0, max)
	for i := 0; i < n; i++ {
		out = append(out, '★')
	}
	for i := n; i < max; i++ {
		out = append(out, '☆')
	}
	return string(out)
}

// RatingAverage is the mean of a place's integer ratings.
func RatingAverage(p domain.MergedPlace) float64 {
	if len(p.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(p.Reviews))
}

// ratingString keeps two significant digits ("4.5", "4").
func ratingString(avg float64) string {
	return strconv.FormatFloat(avg, 'g', 2, 64)
}

// starCount truncates the displayed average, so 3.96 renders as "4"
// with four stars rather than three.
func starCount(avg float64) int {
	n, _ := strconv.ParseFloat(ratingString(avg), 64)
	return int(n)
}

// InfoViewFor builds the info-window content for a provider place. The
// rating line appears only when a merged place matches; place==nil means
// no reviews exist yet for this provider id.
func InfoViewFor(gp domain.ProviderPlace, providerIndex int, place *domain.MergedPlace, placeIndex int) domain.InfoView {
	address := gp.FormattedAddress
	if address == "" {
		address = gp.Vicinity
	}
	v := domain.InfoView{
		Title:     gp.Name,
		Address:   address,
		FormRoute: fmt.Sprintf("#form/%d", providerIndex),
	}
	if place != nil && place.ReviewCount() > 0 {
		avg := RatingAverage(*place)
		v.Rating = &domain.RatingView{
			Average:      ratingString(avg),
			Stars:        Stars(starCount(avg), 5),
			ReviewCount:  place.ReviewCount(),
			ReviewsRoute: fmt.Sprintf("#reviews/%d", placeIndex),
		}
	}
	return v
}

// ReviewsPanelFor builds the expanded reviews view for one merged place.
func ReviewsPanelFor(p domain.MergedPlace) domain.ReviewsPanel {
	avg := RatingAverage(p)
	panel := domain.ReviewsPanel{
		PlaceName:    p.Name,
		PlaceAddress: p.Address,
		Average:      ratingString(avg),
		Stars:        Stars(starCount(avg), 5),
		ReviewCount:  p.ReviewCount(),
	}
	for _, r := range p.Reviews {
		panel.Reviews = append(panel.Reviews, domain.ReviewView{
			Author: r.Author,
			Date:   r.Timestamp.Format("1/2/2006"),
			Stars:  Stars(r.Rating, 5),
			Text:   r.Text,
		})
	}
	return panel
}
