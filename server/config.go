package server

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/log"
)

type Config struct {
	Port           string
	LogLevel       string
	AllowedOrigins []string
	// Path to a historical exchange rate file (.csv or .json); empty means
	// every foreign row must carry its own rate.
	RatesPath    string
	MaxBodyBytes int64
	RateLimitRPS int
}

func getEnv(key, dflt string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return dflt
}

// LoadConfig reads configuration from the environment, with .env support
// for local development.
func LoadConfig() *Config {
	if err := godotenv.Load(); err == nil {
		log.L.Info(".env file loaded")
	}

	maxBodyStr := getEnv("MAX_BODY_BYTES", "10485760")
	maxBody, err := strconv.ParseInt(maxBodyStr, 10, 64)
	if err != nil {
		log.L.Warn("Invalid MAX_BODY_BYTES, using default 10MB", "value", maxBodyStr)
		maxBody = 10 * 1024 * 1024
	}

	rpsStr := getEnv("RATE_LIMIT_RPS", "10")
	rps, err := strconv.Atoi(rpsStr)
	if err != nil || rps <= 0 {
		log.L.Warn("Invalid RATE_LIMIT_RPS, using default 10", "value", rpsStr)
		rps = 10
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		RatesPath:      getEnv("RATES_PATH", ""),
		MaxBodyBytes:   maxBody,
		RateLimitRPS:   rps,
	}
}
