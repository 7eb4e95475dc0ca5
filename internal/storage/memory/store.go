// Package memory holds the in-memory place record store. Records live for
// the session only and are rebuilt from the feeds on every start.
package memory

import (
	"sync"

	"placemap/internal/domain"
)

// MergeResult reports what a submission merge did.
type MergeResult struct {
	Place       domain.MergedPlace
	Index       int
	IsNewPlace  bool
	IsNewReview bool
}

// ProviderMergeResult reports what a provider record merge did.
// ResolvedPlace is the index of a merged place whose coordinate was
// backfilled by this insert, or -1.
type ProviderMergeResult struct {
	Place         domain.ProviderPlace
	Index         int
	IsNew         bool
	ResolvedPlace int
}

// Store is the indexed collection of merged places and provider places.
// Pure data and lookup; no I/O. All mutations serialize behind one mutex
// so the check-then-insert paths below are atomic.
type Store struct {
	mu sync.Mutex

	places         []*domain.MergedPlace
	providerPlaces []domain.ProviderPlace

	placeByProviderID map[string]int
	providerByID      map[string]int
	placeBySubmission map[string]int // submission id -> place holding its review
}

func New() *Store {
	return &Store{
		placeByProviderID: make(map[string]int),
		providerByID:      make(map[string]int),
		placeBySubmission: make(map[string]int),
	}
}

// MergeSubmission folds one submission row into the store.
//
// A submission id already merged anywhere is a no-op: repeated fetches
// (city bounce, overlapping queries, the recovery refresh) re-deliver
// the same rows. A fresh row whose provider id matches an existing
// merged place appends its review there; any other fresh row creates a
// new place, its coordinate set immediately when the provider record
// for its id is already indexed. Matching is by provider id only; a
// fresh row without one is always a new place.
func (s *Store) MergeSubmission(sub domain.Submission) MergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, dup := s.placeBySubmission[sub.SubmissionID]; dup {
		return MergeResult{Place: s.copyPlace(idx), Index: idx}
	}

	if sub.ProviderPlaceID != "" {
		if idx, ok := s.placeByProviderID[sub.ProviderPlaceID]; ok {
			p := s.places[idx]
			p.Reviews = append(p.Reviews, sub.Review())
			s.placeBySubmission[sub.SubmissionID] = idx
			return MergeResult{Place: s.copyPlace(idx), Index: idx, IsNewReview: true}
		}
	}

	idx := len(s.places)
	place := &domain.MergedPlace{
		Name:            sub.PlaceName,
		Address:         sub.PlaceAddress,
		ProviderPlaceID: sub.ProviderPlaceID,
		Reviews:         []domain.Review{sub.Review()},
	}
	if sub.ProviderPlaceID != "" {
		s.placeByProviderID[sub.ProviderPlaceID] = idx
		if gi, ok := s.providerByID[sub.ProviderPlaceID]; ok {
			c := s.providerPlaces[gi].Coordinate
			place.Coordinate = &c
		}
	}
	s.places = append(s.places, place)
	s.placeBySubmission[sub.SubmissionID] = idx
	return MergeResult{Place: s.copyPlace(idx), Index: idx, IsNewPlace: true, IsNewReview: true}
}

// MergeProviderPlace inserts a provider record if its id is unseen.
// Idempotent under repeated delivery: the same physical place shows up in
// every overlapping viewport search. A fresh insert backfills the
// coordinate of a pending merged place with the same provider id.
func (s *Store) MergeProviderPlace(p domain.ProviderPlace) ProviderMergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.providerByID[p.ID]; ok {
		return ProviderMergeResult{Place: s.providerPlaces[idx], Index: idx, ResolvedPlace: -1}
	}

	idx := len(s.providerPlaces)
	s.providerPlaces = append(s.providerPlaces, p)
	s.providerByID[p.ID] = idx

	resolved := -1
	if pi, ok := s.placeByProviderID[p.ID]; ok && s.places[pi].Coordinate == nil {
		c := p.Coordinate
		s.places[pi].Coordinate = &c
		resolved = pi
	}
	return ProviderMergeResult{Place: p, Index: idx, IsNew: true, ResolvedPlace: resolved}
}

// PlaceByProviderID looks up a merged place by provider id.
func (s *Store) PlaceByProviderID(id string) (domain.MergedPlace, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.placeByProviderID[id]
	if !ok {
		return domain.MergedPlace{}, -1, false
	}
	return s.copyPlace(idx), idx, true
}

// Place returns a copy of the merged place at idx.
func (s *Store) Place(idx int) (domain.MergedPlace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.places) {
		return domain.MergedPlace{}, false
	}
	return s.copyPlace(idx), true
}

// ProviderPlace returns the provider place at idx.
func (s *Store) ProviderPlace(idx int) (domain.ProviderPlace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.providerPlaces) {
		return domain.ProviderPlace{}, false
	}
	return s.providerPlaces[idx], true
}

// ProviderIndex returns the index of a provider place by id.
func (s *Store) ProviderIndex(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.providerByID[id]
	return idx, ok
}

func (s *Store) PlaceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.places)
}

func (s *Store) ProviderPlaceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.providerPlaces)
}

// copyPlace snapshots a record so readers cannot alias the backing slice.
// Callers must hold s.mu.
func (s *Store) copyPlace(idx int) domain.MergedPlace {
	p := *s.places[idx]
	if p.Coordinate != nil {
		c := *p.Coordinate
		p.Coordinate = &c
	}
	if len(p.Reviews) > 0 {
		rs := make([]domain.Review, len(p.Reviews))
		copy(rs, p.Reviews)
		p.Reviews = rs
	}
	return p
}
