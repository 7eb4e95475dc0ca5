package app

import (
	"context"
	"strings"
	"time"

	"placemap/internal/domain"
)

// PlacesQueryService answers per-city submission queries through a TTL
// cache. The session-scoped engine rebuilds from scratch anyway, so a
// short cache in front of the form backend only saves round trips; it is
// not a persistence layer.
type PlacesQueryService struct {
	src      domain.SubmissionSource
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewPlacesQueryService(src domain.SubmissionSource, cache domain.Cache, ttl time.Duration) *PlacesQueryService {
	return &PlacesQueryService{src: src, cache: cache, cacheTTL: ttl}
}

// SubmissionsForCity implements domain.SubmissionSource, so the service
// can sit directly in front of the ingestor.
func (s *PlacesQueryService) SubmissionsForCity(ctx context.Context, city string) ([]domain.Submission, error) {
	key := cityKey(city)
	var rows []domain.Submission
	if ok, _ := s.cache.Get(ctx, key, &rows); ok {
		return rows, nil
	}
	rows, err := s.src.SubmissionsForCity(ctx, city)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, rows, int(s.cacheTTL.Seconds()))
	return rows, nil
}

// Invalidate drops the cached rows for one city.
func (s *PlacesQueryService) Invalidate(ctx context.Context, city string) error {
	return s.cache.Del(ctx, cityKey(city))
}

func cityKey(city string) string {
	if city == "" {
		return "places:all"
	}
	return "places:" + strings.ToLower(city)
}
