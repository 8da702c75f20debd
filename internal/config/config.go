package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AWSEndpointURL     string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	QueueName  string
	StreamName string

	BatchSize                int
	VisibilityTimeoutSeconds int
	PollIdle                 time.Duration
	RatePerSecond            int

	HTTPAddr string
}

func Load() *Config {
	return &Config{
		AWSEndpointURL:     getEnv("AWS_ENDPOINT_URL", "http://localstack:4566"),
		AWSRegion:          getEnv("AWS_REGION", "eu-west-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", "test"),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", "test"),

		QueueName:  getEnv("QUEUE_NAME", "submissions"),
		StreamName: getEnv("STREAM_NAME", "events"),

		BatchSize:                getEnvInt("BATCH_SIZE", 10),
		VisibilityTimeoutSeconds: getEnvInt("VISIBILITY_TIMEOUT", 30),
		PollIdle:                 getEnvDuration("POLL_IDLE_MS", time.Second),
		RatePerSecond:            getEnvInt("RATE_LIMIT_PER_SECOND", 5),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Millisecond
		}
	}
	return fallback
}
