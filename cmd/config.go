package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPPort        = "8080"
	defaultDBTimeout       = 5 * time.Second
	defaultHubBufferSize   = 64
	defaultLogLevel        = "info"
	defaultServiceName     = "separation"
	defaultTraceSampleRate = 1.0
)

type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBTimeout  time.Duration

	KafkaHost              string
	KafkaOrderChangedTopic string

	OTLPEndpoint    string
	TraceSampleRate float64

	LogLevel           string
	ServiceName        string
	HubBufferSize      int
	MetricsJobSchedule string
}

// DSN is the gorm postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// KafkaEnabled reports whether order changes are relayed to Kafka.
func (c Config) KafkaEnabled() bool {
	return c.KafkaHost != "" && c.KafkaOrderChangedTopic != ""
}

// LoadConfig reads the environment, after loading envFile when it exists.
// Variables already set in the environment win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		HTTPPort:               envOr("HTTP_PORT", defaultHTTPPort),
		DBHost:                 os.Getenv("DB_HOST"),
		DBPort:                 envOr("DB_PORT", "5432"),
		DBUser:                 os.Getenv("DB_USER"),
		DBPassword:             os.Getenv("DB_PASSWORD"),
		DBName:                 os.Getenv("DB_NAME"),
		DBSslMode:              envOr("DB_SSLMODE", "disable"),
		KafkaHost:              os.Getenv("KAFKA_HOST"),
		KafkaOrderChangedTopic: os.Getenv("KAFKA_ORDER_CHANGED_TOPIC"),
		OTLPEndpoint:           os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:               envOr("LOG_LEVEL", defaultLogLevel),
		ServiceName:            envOr("SERVICE_NAME", defaultServiceName),
		MetricsJobSchedule:     os.Getenv("METRICS_JOB_SCHEDULE"),
	}

	var errs []error
	var err error
	if cfg.DBTimeout, err = durationEnv("DB_TIMEOUT", defaultDBTimeout); err != nil {
		errs = append(errs, err)
	}
	if cfg.HubBufferSize, err = intEnv("HUB_BUFFER_SIZE", defaultHubBufferSize); err != nil {
		errs = append(errs, err)
	}
	if cfg.TraceSampleRate, err = floatEnv("OTEL_TRACES_SAMPLER_ARG", defaultTraceSampleRate); err != nil {
		errs = append(errs, err)
	}
	if cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "" {
		errs = append(errs, errors.New("DB_HOST, DB_USER and DB_NAME are required"))
	}
	if err = errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f > 1 {
		return 0, fmt.Errorf("%s must be within [0, 1], got %q", key, raw)
	}
	return f, nil
}
