// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8021"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI            string        `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"DATABASE" envDefault:"fulfillment"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize    uint64        `env:"MAX_POOL_SIZE" envDefault:"100"`
	MinPoolSize    uint64        `env:"MIN_POOL_SIZE" envDefault:"10"`
	ReplicaSet     string        `env:"REPLICA_SET"`
}

// KafkaConfig holds event producer settings
type KafkaConfig struct {
	Enabled      bool          `env:"ENABLED" envDefault:"true"`
	Brokers      []string      `env:"BROKERS" envDefault:"localhost:9092"`
	Topic        string        `env:"TOPIC" envDefault:"wms.fulfillment.events"`
	BatchSize    int           `env:"BATCH_SIZE" envDefault:"100"`
	BatchTimeout time.Duration `env:"BATCH_TIMEOUT" envDefault:"10ms"`
	RequiredAcks int           `env:"REQUIRED_ACKS" envDefault:"-1"`
}

// LabelsConfig holds label service client settings
type LabelsConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8090"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level       string `env:"LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Version     string `env:"VERSION" envDefault:"unknown"`
}

// Config is the root service configuration
type Config struct {
	ServiceName string        `env:"SERVICE_NAME" envDefault:"fulfillment-service"`
	Server      ServerConfig  `envPrefix:"SERVER_"`
	Mongo       MongoConfig   `envPrefix:"MONGODB_"`
	Kafka       KafkaConfig   `envPrefix:"KAFKA_"`
	Labels      LabelsConfig  `envPrefix:"LABELS_"`
	Logging     LoggingConfig `envPrefix:"LOG_"`
}

// Load parses configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
