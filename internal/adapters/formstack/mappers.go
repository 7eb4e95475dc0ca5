package formstack

import (
	"strconv"
	"strings"
	"time"

	"placemap/internal/domain"
)

// The backend stores compound fields as "key = value" lines. These
// fixups flatten them into display strings the way the map expects.

// fixName turns "first = John\nlast = Doe" into "John Doe".
func fixName(v string) string {
	v = strings.ReplaceAll(v, "first = ", "")
	return strings.ReplaceAll(v, "\nlast = ", " ")
}

// fixAddress turns the address sub-fields into "street, city, state zip".
func fixAddress(v string) string {
	v = strings.ReplaceAll(v, "address = ", "")
	v = strings.ReplaceAll(v, "\ncity = ", ", ")
	v = strings.ReplaceAll(v, "\nstate = ", ", ")
	return strings.ReplaceAll(v, "\nzip = ", " ")
}

// fixReview keeps line breaks as simple markup for the reviews panel.
func fixReview(v string) string {
	return strings.ReplaceAll(v, "\r\n", "<br>")
}

// Submission timestamps arrive as "2006-01-02 15:04:05".
const submissionTimeLayout = "2006-01-02 15:04:05"

func mapSubmission(raw rawSubmission, ids map[string]string) domain.Submission {
	byID := make(map[string]string, len(raw.Data))
	for fieldID, d := range raw.Data {
		byID[fieldID] = d.Value
	}
	value := func(logical string) string { return byID[ids[logical]] }

	rating, _ := strconv.Atoi(strings.TrimSpace(value("rate")))
	ts, err := time.Parse(submissionTimeLayout, raw.Timestamp)
	if err != nil {
		ts = time.Time{}
	}

	return domain.Submission{
		SubmissionID:    raw.ID,
		Timestamp:       ts,
		Author:          fixName(value("name")),
		Rating:          rating,
		Text:            fixReview(value("review")),
		PlaceName:       value("place"),
		PlaceAddress:    fixAddress(value("address")),
		ProviderPlaceID: value("googleplaceid"),
	}
}
