package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Env         string
	Log         LogConfig
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	Kafka       KafkaConfig
	Auth        AuthConfig
	Booking     BookingConfig
	Geolocation GeolocationConfig
	OTEL        OTELConfig
}

// LogConfig holds logger settings. Console output is meant for local development.
type LogConfig struct {
	Level   string
	Console bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
	// WarmInterval is how often institution caches are refreshed; zero disables warming
	WarmInterval time.Duration
}

// TypesenseConfig holds Typesense configuration. An empty URL disables search.
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// KafkaConfig holds the booking event stream configuration. No brokers disables the stream.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret  string
	StaffRoles []string
}

// BookingConfig holds queue booking policy settings
type BookingConfig struct {
	CheckInPrefix string
	CounterTTL    time.Duration
	QRCodeSize    int
}

// GeolocationConfig holds requester location and ranking settings
type GeolocationConfig struct {
	DefaultTravelMode string
	TimeZone          string
	LookupTimeout     time.Duration
	CacheWindow       time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("ENV", "production"),
		Log: LogConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Console: getEnvAsBool("LOG_CONSOLE", os.Getenv("ENV") == "development"),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "myturn"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 0),

			WarmInterval: getEnvAsDuration("CACHE_WARM_INTERVAL", 2*time.Minute),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", ""),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_BOOKING_TOPIC", "booking-events"),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			StaffRoles: getEnvAsList("STAFF_ROLES", []string{"manager", "operator", "staff"}),
		},
		Booking: BookingConfig{
			CheckInPrefix: getEnv("CHECKIN_CODE_PREFIX", "MYTURN"),
			CounterTTL:    getEnvAsDuration("QUEUE_COUNTER_TTL", 48*time.Hour),
			QRCodeSize:    getEnvAsInt("QR_CODE_SIZE", 256),
		},
		Geolocation: GeolocationConfig{
			DefaultTravelMode: getEnv("DEFAULT_TRAVEL_MODE", "drive"),
			TimeZone:          getEnv("DEPARTURE_TIMEZONE", "Asia/Kolkata"),
			LookupTimeout:     getEnvAsDuration("LOCATION_LOOKUP_TIMEOUT", 10*time.Second),
			CacheWindow:       getEnvAsDuration("LOCATION_CACHE_WINDOW", 5*time.Minute),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "myturn"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if cfg.Booking.CheckInPrefix == "" {
		return nil, fmt.Errorf("CHECKIN_CODE_PREFIX must not be empty")
	}
	if cfg.Geolocation.LookupTimeout <= 0 {
		return nil, fmt.Errorf("LOCATION_LOOKUP_TIMEOUT must be positive")
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether at least one broker is configured
func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// Location resolves the configured departure time zone, falling back to UTC.
func (c *GeolocationConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
