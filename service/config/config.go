package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           int
	APIKey         string
	VerboseLogging bool
	RateLimit      int

	StoragePath string

	NotificationAuthorization string
	BackgroundFetchTimeout    time.Duration

	PodcastFeedURL     string
	PodcastFeedTimeout time.Duration

	VAPIDSubscriber string
	WebPushTTL      int

	DeliveryMaxRetries int
	DeliveryBaseDelay  time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		APIKey:         os.Getenv("API_KEY"),
		VerboseLogging: getEnvBool("VERBOSE_LOGGING", false),
		RateLimit:      getEnvInt("RATE_LIMIT", 100),

		StoragePath: getEnvString("STORAGE_PATH", "./data/newscast.db"),

		NotificationAuthorization: strings.ToLower(getEnvString("NOTIFICATION_AUTHORIZATION", "authorized")),
		BackgroundFetchTimeout:    getEnvDuration("BACKGROUND_FETCH_TIMEOUT", 30*time.Second),

		PodcastFeedURL:     getEnvString("PODCAST_FEED_URL", "https://www.raywenderlich.com/category/podcast/feed"),
		PodcastFeedTimeout: getEnvDuration("PODCAST_FEED_TIMEOUT", 15*time.Second),

		VAPIDSubscriber: getEnvString("VAPID_SUBSCRIBER", "admin@localhost"),
		WebPushTTL:      getEnvInt("WEBPUSH_TTL", 86400),

		DeliveryMaxRetries: getEnvInt("DELIVERY_MAX_RETRIES", 10),
		DeliveryBaseDelay:  getEnvDuration("DELIVERY_BASE_DELAY", 500*time.Millisecond),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY environment variable is required")
	}

	switch c.NotificationAuthorization {
	case "authorized", "denied", "provisional", "notdetermined":
	default:
		return fmt.Errorf("NOTIFICATION_AUTHORIZATION must be one of authorized, denied, provisional, notdetermined")
	}

	if c.DeliveryMaxRetries < 1 {
		return fmt.Errorf("DELIVERY_MAX_RETRIES must be at least 1")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
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
