package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	JWT          JWTConfig          `yaml:"jwt"`
	Provider     ProviderConfig     `yaml:"provider"`
	Notification NotificationConfig `yaml:"notification"`
	Redis        RedisConfig        `yaml:"redis"`
	Kafka        KafkaConfig        `yaml:"kafka"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	Mode           string   `yaml:"mode"`
	PublicURL      string   `yaml:"public_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the sqlite file, ":memory:" for an ephemeral database.
	Path string `yaml:"path"`
}

// ConnectionString returns the DSN for the configured driver.
func (c *DatabaseConfig) ConnectionString() string {
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
			c.User, c.Password, c.Host, c.Port, c.Name)
	case "sqlite", "sqlite3":
		return c.Path
	default:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
}

type JWTConfig struct {
	Secret          string `yaml:"secret"`
	ExpirationHours int    `yaml:"expiration_hours"`
}

func (c *JWTConfig) ExpirationDuration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

type ProviderConfig struct {
	BaseURL     string        `yaml:"base_url"`
	AccessToken string        `yaml:"access_token"`
	Timeout     time.Duration `yaml:"timeout"`
}

type NotificationConfig struct {
	// Secret enables HMAC verification of provider notifications when set.
	Secret   string        `yaml:"secret"`
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:      "8080",
			Mode:      "release",
			PublicURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    "5432",
			User:    "units",
			Name:    "units",
			SSLMode: "disable",
			Path:    "units.db",
		},
		JWT: JWTConfig{
			ExpirationHours: 24,
		},
		Provider: ProviderConfig{
			Timeout: 15 * time.Second,
		},
		Notification: NotificationConfig{
			DedupTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic: "lease.esignature.status_changed",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path and finally environment variables.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.Server.Port = envString("SERVER_PORT", cfg.Server.Port)
	cfg.Server.Mode = envString("GIN_MODE", cfg.Server.Mode)
	cfg.Server.PublicURL = strings.TrimRight(envString("PUBLIC_URL", cfg.Server.PublicURL), "/")
	cfg.Server.AllowedOrigins = envList("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)

	cfg.Database.Driver = envString("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = envString("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = envString("DB_PORT", cfg.Database.Port)
	cfg.Database.User = envString("DB_USER", cfg.Database.User)
	cfg.Database.Password = envString("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = envString("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = envString("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.Path = envString("DB_PATH", cfg.Database.Path)

	cfg.JWT.Secret = envString("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.ExpirationHours = envInt("JWT_EXPIRATION_HOURS", cfg.JWT.ExpirationHours)

	cfg.Provider.BaseURL = strings.TrimRight(envString("PROVIDER_API_URL", cfg.Provider.BaseURL), "/")
	cfg.Provider.AccessToken = envString("PROVIDER_ACCESS_TOKEN", cfg.Provider.AccessToken)
	cfg.Provider.Timeout = envDuration("PROVIDER_TIMEOUT", cfg.Provider.Timeout)

	cfg.Notification.Secret = envString("NOTIFICATION_SECRET", cfg.Notification.Secret)
	cfg.Notification.DedupTTL = envDuration("NOTIFICATION_DEDUP_TTL", cfg.Notification.DedupTTL)

	cfg.Redis.URL = envString("REDIS_URL", cfg.Redis.URL)

	cfg.Kafka.Brokers = envList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.Topic = envString("KAFKA_TOPIC", cfg.Kafka.Topic)

	return &cfg, nil
}

func envString(name, fallback string) string {
	if raw := strings.TrimSpace(os.Getenv(name)); raw != "" {
		return raw
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(name); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envList(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
