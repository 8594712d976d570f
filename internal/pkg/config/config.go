package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAddr          string        `env:"ADMIN_ADDR" envDefault:":9091"`
	PostgresURL        string        `env:"POSTGRES_URL,required"`
	RedisAddr          string        `env:"REDIS_ADDR,required"`
	JWTSecret          string        `env:"JWT_SECRET,required"`
	AuditBackend       string        `env:"AUDIT_BACKEND" envDefault:"postgres"` // postgres | kafka
	AuditBufferSize    int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1024"`
	KafkaBrokers       []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaAuditTopic    string        `env:"KAFKA_AUDIT_TOPIC" envDefault:"security.events"`
	BusinessCacheTTL   time.Duration `env:"BUSINESS_CACHE_TTL" envDefault:"5m"`
	SessionActivityTTL time.Duration `env:"SESSION_ACTIVITY_TTL" envDefault:"24h"`
	RateLimitRPS       float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
