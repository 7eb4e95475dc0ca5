package domain

import "time"

// Review is one user-submitted rating, immutable once created.
// SubmissionID is unique within a place's review list.
type Review struct {
	SubmissionID string
	Timestamp    time.Time
	Author       string
	Rating       int // 1..5
	Text         string
}

// Submission is one row from the form backend before merging.
// ProviderPlaceID is optional; empty when the reviewer skipped it.
type Submission struct {
	SubmissionID    string
	Timestamp       time.Time
	Author          string
	Rating          int
	Text            string
	PlaceName       string
	PlaceAddress    string
	ProviderPlaceID string
}

// Review returns the submission's review portion.
func (s Submission) Review() Review {
	return Review{
		SubmissionID: s.SubmissionID,
		Timestamp:    s.Timestamp,
		Author:       s.Author,
		Rating:       s.Rating,
		Text:         s.Text,
	}
}
