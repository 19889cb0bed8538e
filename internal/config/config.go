package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is assembled once at process start and handed to the components
// that need it. Nothing reads the environment after startup.
type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	GatewayTimeout      time.Duration

	// PlatformFeePercent is applied at payout-reporting time only; it is
	// never stored on bookings or ledger rows.
	PlatformFeePercent float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                envOrDefault("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTTTL:              24 * time.Hour,
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		GatewayTimeout:      15 * time.Second,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}

	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
		}
		cfg.JWTTTL = d
	}

	cfg.PlatformFeePercent = 10
	if v := os.Getenv("PLATFORM_FEE_PERCENT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 100 {
			return nil, fmt.Errorf("invalid PLATFORM_FEE_PERCENT: %s", v)
		}
		cfg.PlatformFeePercent = f
	}

	return cfg, nil
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
