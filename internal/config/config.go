package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                   string
	DatabaseURL            string
	JWTSecret              string
	SessionSweepInterval   time.Duration
	RateLimitPerMinute     int
	RateLimitBurst         int
	UserRateLimitPerMinute int
	UserRateLimitBurst     int
	PolishEnabled          bool
	PolishEndpoint         string
	PolishAPIKey           string
	PolishTimeout          time.Duration
}

func Load() Config {
	_ = godotenv.Load()

	port := os.Getenv("HR_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:                   port,
		DatabaseURL:            os.Getenv("DB_DSN"),
		JWTSecret:              os.Getenv("HR_JWT_SECRET"),
		SessionSweepInterval:   readDurationSeconds("HR_SESSION_SWEEP_INTERVAL_SECONDS", 3600),
		RateLimitPerMinute:     readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:         readInt("RATE_LIMIT_BURST", 30),
		UserRateLimitPerMinute: readInt("USER_RATE_LIMIT_PER_MIN", 600),
		UserRateLimitBurst:     readInt("USER_RATE_LIMIT_BURST", 120),
		PolishEnabled:          readBool("FEATURE_FEEDBACK_POLISH", false),
		PolishEndpoint:         os.Getenv("HR_POLISH_ENDPOINT"),
		PolishAPIKey:           os.Getenv("HR_POLISH_API_KEY"),
		PolishTimeout:          readDurationSeconds("HR_POLISH_TIMEOUT_SECONDS", 10),
	}
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
