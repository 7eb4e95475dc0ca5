package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"placemap/internal/adapters/formstack"
	server "placemap/internal/adapters/http_server"
	"placemap/internal/adapters/observability"
	redisad "placemap/internal/adapters/redis"
	"placemap/internal/app"
	"placemap/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	form, err := formstack.New(cfg.FormBase, cfg.FormOAuth, cfg.FormID, cfg.FormRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Formstack client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewPlacesQueryService(form, cache, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, Form: form})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
