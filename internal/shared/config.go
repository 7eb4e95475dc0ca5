package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config carries the settings of the two binaries (API proxy and cache
// warmer). The map engine is embedded by its UI host, which passes its
// own tunables through app.Config.
type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	FormBase    string
	FormOAuth   string
	FormID      string
	FormRPS     int
	CacheTTL    time.Duration
	Workers     int
	WarmCities  []string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),
		FormBase:    env("FORMSTACK_BASE_URL", "https://www.formstack.com/api/v2"),
		FormOAuth:   env("FORMSTACK_OAUTH_TOKEN", ""),
		FormID:      env("FORMSTACK_FORM_ID", ""),
		FormRPS:     atoi("FORMSTACK_RPS", 5),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		Workers:     atoi("PREFETCH_WORKERS", 8),
		WarmCities:  splitList(env("PREFETCH_CITIES", "")),
	}
	if c.FormOAuth == "" {
		log.Warn().Msg("FORMSTACK_OAUTH_TOKEN is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
