package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port           string
	CatalogFile    string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	Rates          RatesConfig
	Payment        PaymentConfig
}

type RatesConfig struct {
	URL      string
	Fallback decimal.Decimal
	Timeout  time.Duration
}

type PaymentConfig struct {
	CardSurcharge decimal.Decimal
	Delay         time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8081"),
		CatalogFile:    getEnv("CATALOG_FILE", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		Rates: RatesConfig{
			URL:      getEnv("RATES_URL", "https://open.er-api.com/v6/latest/USD"),
			Fallback: getDecimal("FALLBACK_RATE", "300"),
			Timeout:  getDuration("RATES_TIMEOUT", 5*time.Second),
		},
		Payment: PaymentConfig{
			CardSurcharge: getDecimal("CARD_SURCHARGE", "0.03"),
			Delay:         getDuration("PAYMENT_DELAY", 1500*time.Millisecond),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDecimal(key, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil || d.IsNegative() {
		return decimal.RequireFromString(fallback)
	}
	return d
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
