package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are the .env locations tried by LoadEnvFile when no paths
// are given.
var DefaultEnvFiles = []string{".env", "../.env"}

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Field-operations backend.
	BackendBaseURL   string
	BackendTimeout   time.Duration
	BackendUserAgent string

	RefreshSchedule string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional Kafka sink for classified snapshots.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	backendTimeout, err := parsePositiveDuration("BACKEND_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		BackendBaseURL:   sharedcfg.EnvOrDefault("BACKEND_BASE_URL", "https://dimeloc-backend.onrender.com/api"),
		BackendTimeout:   backendTimeout,
		BackendUserAgent: sharedcfg.EnvOrDefault("BACKEND_USER_AGENT", "store-tier-service/1.0"),
		RefreshSchedule:  sharedcfg.EnvOrDefault("REFRESH_SCHEDULE", "@every 5m"),
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   brokers,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "classified-stores"),
	}

	if u, err := url.Parse(cfg.BackendBaseURL); err != nil || u.Host == "" {
		return nil, errors.New("invalid BACKEND_BASE_URL")
	}
	if cfg.RefreshSchedule == "" {
		return nil, errors.New("REFRESH_SCHEDULE is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// LoadEnvFile loads the first readable file among paths (DefaultEnvFiles when
// empty) into the process environment and returns its path, or "" when none
// was found. Variables already set in the environment are not overridden.
func LoadEnvFile(paths ...string) string {
	if len(paths) == 0 {
		paths = DefaultEnvFiles
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
