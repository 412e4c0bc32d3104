// Package config loads application configuration from the
// environment.
package config

import (
	"os"
	"time"

	"fourmen-shop/internal/vnpay"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Server   ServerConfig
	VNPay    vnpay.Config
	Checkout CheckoutConfig
	Sweeper  SweeperConfig
}

type ServerConfig struct {
	Port    string
	GinMode string // "debug", "release", or "test"
}

type CheckoutConfig struct {
	// ResultURL is the landing page the callback handler redirects
	// buyers to, with ?status=success|failed appended.
	ResultURL string
}

type SweeperConfig struct {
	Interval time.Duration
	Cutoff   time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		VNPay: vnpay.Config{
			TmnCode:    getEnv("VNPAY_TMN_CODE", ""),
			HashSecret: getEnv("VNPAY_HASH_SECRET", ""),
			BaseURL:    getEnv("VNPAY_BASE_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:  getEnv("VNPAY_RETURN_URL", "http://localhost:8080/payment/vnpay-return"),
		},
		Checkout: CheckoutConfig{
			ResultURL: getEnv("CHECKOUT_RESULT_URL", "/checkout/result"),
		},
		Sweeper: SweeperConfig{
			Interval: getEnvDuration("SWEEP_INTERVAL", time.Minute),
			Cutoff:   getEnvDuration("PENDING_CUTOFF", 15*time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
