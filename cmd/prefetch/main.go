package main

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"placemap/internal/adapters/formstack"
	"placemap/internal/adapters/observability"
	redisad "placemap/internal/adapters/redis"
	"placemap/internal/app"
	"placemap/internal/shared"
)

// prefetch warms the per-city submissions cache so the first map load in
// each configured city is served from Redis instead of the form backend.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	if len(cfg.WarmCities) == 0 {
		log.Fatal().Msg("PREFETCH_CITIES is empty, nothing to warm")
	}

	log.Info().
		Str("base", cfg.FormBase).
		Int("workers", cfg.Workers).
		Int("cities", len(cfg.WarmCities)).
		Msg("prefetch starting")

	form, err := formstack.New(cfg.FormBase, cfg.FormOAuth, cfg.FormID, cfg.FormRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Formstack client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewPlacesQueryService(form, cache, cfg.CacheTTL)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, city := range cfg.WarmCities {
		city := city

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(city string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			// drop stale rows first so the warm pass always refetches
			if err := q.Invalidate(ctx, city); err != nil {
				log.Warn().Str("city", city).Err(err).Msg("invalidate failed")
			}
			rows, err := q.SubmissionsForCity(ctx, city)
			if err != nil {
				log.Warn().Str("city", city).Err(err).Msg("warm failed")
				return
			}
			log.Info().Str("city", city).Int("rows", len(rows)).Msg("warm ok")
		}(city)
	}

	wg.Wait()
	log.Info().Msg("prefetch completed")
}
