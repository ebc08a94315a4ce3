package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	PaymentBaseURL   string
	InferenceBaseURL string
	InferenceAPIKey  string
	InferenceTimeout time.Duration
	CheckoutTTL      time.Duration

	EnableSponsorshipCapture bool
	EnableTipFeedback        bool
	EnableNudgeEvaluation    bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "wellagora"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		PaymentBaseURL:   os.Getenv("PAYMENT_BASE_URL"),
		InferenceBaseURL: os.Getenv("INFERENCE_BASE_URL"),
		InferenceAPIKey:  os.Getenv("INFERENCE_API_KEY"),
		InferenceTimeout: envDuration("INFERENCE_TIMEOUT", 5*time.Second),
		CheckoutTTL:      envDuration("CHECKOUT_TTL", 24*time.Hour),

		EnableSponsorshipCapture: envBool("ENABLE_SPONSORSHIP_CAPTURE", true),
		EnableTipFeedback:        envBool("ENABLE_TIP_FEEDBACK", true),
		EnableNudgeEvaluation:    envBool("ENABLE_NUDGE_EVALUATION", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
