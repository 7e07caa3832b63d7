package config

import (
	"errors"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/drivers-report-service/internal/moment"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Date handling defaults for fields and time option lists.
	DefaultLocale   string
	DefaultTimeZone string

	// Per-client request rate limit for the HTTP API. Zero RPS disables it.
	RateLimitRPS   float64
	RateLimitBurst int

	// Ranking map data. Empty paths select the embedded sample files.
	RankingsDataset string
	RankingsCatalog string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	rps, err := parseNonNegativeFloat("RATE_LIMIT_RPS", 10)
	if err != nil {
		return nil, err
	}

	burst, err := parseIntInRange("RATE_LIMIT_BURST", 20, 1, 10000)
	if err != nil {
		return nil, err
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", true)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "date-field-events"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "date-selections"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "drivers-report"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		DefaultLocale:   sharedcfg.EnvOrDefault("DEFAULT_LOCALE", moment.DefaultLocale),
		DefaultTimeZone: os.Getenv("DEFAULT_TIME_ZONE"),

		RateLimitRPS:   rps,
		RateLimitBurst: burst,

		RankingsDataset: os.Getenv("RANKINGS_DATASET"),
		RankingsCatalog: os.Getenv("RANKINGS_CATALOG"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.DefaultTimeZone != "" {
		if _, err := time.LoadLocation(cfg.DefaultTimeZone); err != nil {
			return nil, errors.New("invalid DEFAULT_TIME_ZONE")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseMapboxCacheSize() int {
	n, err := parseIntInRange("MAPBOX_CACHE_SIZE", 1000, 1, 1<<20)
	if err != nil {
		return 1000
	}
	return n
}
