package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	Storage     string // mysql | memory
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	PMSBase    string
	PMSKey     string
	PMSRPS     int
	PMSRetries int

	SyncWorkers   int
	DefaultRegion string

	MockAddr        string
	MockFailureRate float64
	MockHotelID     string
}

// Load reads the environment. A .env file in the working directory is
// honored but never overrides variables that are already set.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		Storage:     env("STORAGE", "mysql"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel_pms?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		PMSBase:    env("PMS_BASE_URL", "http://localhost:8090"),
		PMSKey:     env("PMS_API_KEY", ""),
		PMSRPS:     atoi("PMS_RPS", 5),
		PMSRetries: atoi("PMS_RETRIES", 0),

		SyncWorkers:   atoi("SYNC_WORKERS", 4),
		DefaultRegion: env("DEFAULT_PHONE_REGION", ""),

		MockAddr:        env("MOCK_ADDR", ":8090"),
		MockFailureRate: atof("MOCK_FAILURE_RATE", 1.0/11),
		MockHotelID:     env("MOCK_HOTEL_ID", "851df8c8-90f2-4c4a-8e01-a4fc46b25178"),
	}
	if c.PMSKey == "" {
		log.Warn().Msg("PMS_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
	}
	return def
}
