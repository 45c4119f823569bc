package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	QueueBackendMemory = "memory"
	QueueBackendKafka  = "kafka"
)

type Config struct {
	DbURL             string
	KafkaBroker       string
	KafkaTopic        string
	KafkaGroup        string
	QueueBackend      string
	APIPort           int
	WorkerConcurrency int
	MaxAttempts       int
}

// NewConfig loads configuration from environment variables
func NewConfig() *Config {
	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg := &Config{
		DbURL:             getEnvOrFatal("DB_URL"),
		QueueBackend:      getEnvString("QUEUE_BACKEND", QueueBackendMemory),
		APIPort:           getEnvInt("API_PORT", 3001),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 10),
		MaxAttempts:       getEnvInt("MAX_ATTEMPTS", 3),
	}

	// Broker settings are only required when the durable backend is selected
	if cfg.QueueBackend == QueueBackendKafka {
		cfg.KafkaBroker = getEnvOrFatal("KAFKA_BROKER")
		cfg.KafkaTopic = getEnvOrFatal("KAFKA_TOPIC")
		cfg.KafkaGroup = getEnvString("KAFKA_GROUP", "order-workers")
	}

	return cfg
}

func getEnvOrFatal(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	log.Fatalf("Warning: environment variable %s not set", key)

	return ""
}

func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
