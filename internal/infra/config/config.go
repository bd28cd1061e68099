package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	// Channel-manager API access. When AccessToken is empty the service runs
	// against the in-memory mock client.
	ChannelAPIBaseURL string
	ChannelAPIToken   string
	ChannelAPISecret  string
	ChannelAPITimeout time.Duration

	MongoURI     string
	MongoDB      string
	MongoTimeout time.Duration

	KafkaBrokers    []string
	KafkaTopic      string
	KafkaGroupID    string
	KafkaTopicAudit string
	KafkaVersion    string

	SyncInterval  time.Duration
	DeliveryDelay time.Duration
}

// Load parses configuration from the current environment. Mongo and Kafka
// are optional; the channel API falls back to mock mode without a token.
func Load() (Config, error) {
	cfg := Config{
		Env:               getEnv("APP_ENV", "dev"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		ChannelAPIBaseURL: getEnv("CHANNEL_API_BASE_URL", "https://open-api.hostex.io"),
		ChannelAPIToken:   os.Getenv("CHANNEL_API_TOKEN"),
		ChannelAPISecret:  os.Getenv("CHANNEL_API_SECRET"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", "amoita"),
		KafkaTopic:        getEnv("KAFKA_RESERVATION_TOPIC", "reservation-events"),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "amoita-sync"),
		KafkaTopicAudit:   getEnv("KAFKA_AUDIT_TOPIC", "audit-events"),
		KafkaVersion:      os.Getenv("KAFKA_VERSION"),
	}

	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		for _, raw := range strings.Split(brokers, ",") {
			if b := strings.TrimSpace(raw); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	timeout, err := parseDurationEnv("CHANNEL_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ChannelAPITimeout = timeout

	mongoTimeout, err := parseDurationEnv("MONGO_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.MongoTimeout = mongoTimeout

	syncInterval, err := parseDurationEnv("SYNC_INTERVAL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.SyncInterval = syncInterval

	deliveryDelay, err := parseDurationEnv("DELIVERY_CONFIRM_DELAY", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.DeliveryDelay = deliveryDelay

	return cfg, nil
}

// MockMode reports whether the service should use the in-memory channel API.
func (c Config) MockMode() bool {
	return c.ChannelAPIToken == ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	// Accept bare millisecond counts for parity with the legacy deployment.
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
