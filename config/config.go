package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App           AppConfig
	HTTP          ServerConfig
	Log           LogConfig
	CORS          CORSConfig
	Stripe        StripeConfig
	Conversions   ConversionsConfig
	OrderTracking OrderTrackingConfig
	PayPal        PayPalConfig
	Checkout      CheckoutConfig
	Commission    CommissionConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type LogConfig struct {
	Level string
}

type CORSConfig struct {
	AllowOrigins []string
}

type StripeConfig struct {
	SecretKey                 string
	WebhookSecret             string
	APIBaseURL                string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
	CreateInvoices            bool
}

type ConversionsConfig struct {
	PixelID     string
	AccessToken string
	APIBaseURL  string
	HTTPTimeout time.Duration
}

type OrderTrackingConfig struct {
	APIURL      string
	APIKey      string
	HTTPTimeout time.Duration
}

type PayPalConfig struct {
	VerifyURL       string
	HTTPTimeout     time.Duration
	DedupeCustomers bool
}

type CheckoutConfig struct {
	DefaultSuccessURL string
	CancelURL         string
}

type CommissionConfig struct {
	CheckoutFeeRate float64
	UpsellFeeRate   float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	stripeSecretKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeSecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY environment variable is required")
	}
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if webhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "checkout-relay"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		CORS: CORSConfig{
			AllowOrigins: getListEnv("CORS_ALLOW_ORIGINS", []string{
				"https://learnmoredigitalcourse.com",
				"https://yt2025hub.com",
			}),
		},
		Stripe: StripeConfig{
			SecretKey:                 stripeSecretKey,
			WebhookSecret:             webhookSecret,
			APIBaseURL:                getEnv("STRIPE_API_BASE_URL", "https://api.stripe.com"),
			SignatureToleranceSeconds: int64(getIntEnv("STRIPE_SIGNATURE_TOLERANCE_SECONDS", 300)),
			HTTPTimeout:               getSecondsEnv("STRIPE_HTTP_TIMEOUT_SECONDS", 10*time.Second),
			CreateInvoices:            getBoolEnv("STRIPE_CREATE_INVOICES", false),
		},
		Conversions: ConversionsConfig{
			PixelID:     getEnv("PIXEL_ID", ""),
			AccessToken: getEnv("ACCESS_TOKEN", ""),
			APIBaseURL:  getEnv("CONVERSIONS_API_BASE_URL", "https://graph.facebook.com/v14.0"),
			HTTPTimeout: getSecondsEnv("CONVERSIONS_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		OrderTracking: OrderTrackingConfig{
			APIURL:      getEnv("UTMIFY_API_URL", ""),
			APIKey:      getEnv("UTMIFY_API_KEY", ""),
			HTTPTimeout: getSecondsEnv("TRACKING_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		PayPal: PayPalConfig{
			VerifyURL:       getEnv("PAYPAL_VERIFY_URL", "https://ipnpb.paypal.com/cgi-bin/webscr"),
			HTTPTimeout:     getSecondsEnv("PAYPAL_HTTP_TIMEOUT_SECONDS", 10*time.Second),
			DedupeCustomers: getBoolEnv("PAYPAL_DEDUPE_CUSTOMERS", false),
		},
		Checkout: CheckoutConfig{
			DefaultSuccessURL: getEnv("CHECKOUT_DEFAULT_SUCCESS_URL", "https://yt2025hub.com/presell-stripe/grow2025/vsl"),
			CancelURL:         getEnv("CHECKOUT_CANCEL_URL", "https://learnmoredigitalcourse.com/erro"),
		},
		Commission: CommissionConfig{
			CheckoutFeeRate: getFloatEnv("TRACKING_CHECKOUT_FEE_RATE", 0.0674),
			UpsellFeeRate:   getFloatEnv("TRACKING_UPSELL_FEE_RATE", 0.0674),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
