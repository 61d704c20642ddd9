package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Account struct {
	Email    string
	Password string
}

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	StoreDriver string // file | mysql
	DataDir     string
	MySQLDSN    string

	RedisAddr string // empty disables the query cache
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	HostawayBase      string
	HostawayKey       string
	HostawayAccountID string
	PlacesBase        string
	PlacesKey         string
	PlaceIDs          []string
	ProviderTimeout   time.Duration
	ProviderRPS       int
	FetchWorkers      int

	JWTSecret   string
	JWTTTL      time.Duration
	Admin       Account
	Manager     Account
	CORSOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win over it.
func Load() Config {
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		StoreDriver: strings.ToLower(env("STORE_DRIVER", "file")),
		DataDir:     env("DATA_DIR", "data"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4&loc=UTC"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		HostawayBase:      env("HOSTAWAY_BASE_URL", "https://api.hostaway.com/v1"),
		HostawayKey:       env("HOSTAWAY_API_KEY", ""),
		HostawayAccountID: env("HOSTAWAY_ACCOUNT_ID", "61148"),
		PlacesBase:        env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesKey:         env("PLACES_API_KEY", ""),
		PlaceIDs:          csv(os.Getenv("PLACES_PLACE_IDS")),
		ProviderTimeout:   time.Duration(atoi("PROVIDER_TIMEOUT_SECONDS", 15)) * time.Second,
		ProviderRPS:       atoi("PROVIDER_RPS", 5),
		FetchWorkers:      atoi("FETCH_WORKERS", 4),

		JWTSecret: env("JWT_SECRET", ""),
		JWTTTL:    time.Duration(atoi("JWT_TTL_HOURS", 24)) * time.Hour,
		Admin: Account{
			Email:    env("ADMIN_EMAIL", "admin@flexliving.com"),
			Password: env("ADMIN_PASSWORD", "admin123"),
		},
		Manager: Account{
			Email:    env("MANAGER_EMAIL", "manager@flexliving.com"),
			Password: env("MANAGER_PASSWORD", "admin123"),
		},
		CORSOrigins: csv(env("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	if c.HostawayKey == "" {
		log.Warn().Msg("HOSTAWAY_API_KEY is empty, hostaway reviews will come from the fallback set")
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty, google reviews will come from the fallback set")
	}
	if c.JWTSecret == "" {
		c.JWTSecret = "dev-only-secret-change-me"
		log.Warn().Msg("JWT_SECRET is empty, using an insecure development secret")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func csv(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
