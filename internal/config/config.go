package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Broker    BrokerConfig
	NewRelic  NewRelicConfig
	JWT       JWTConfig
	Pricing   PricingConfig
	Proximity ProximityConfig
	RateLimit RateLimitConfig
	WebSocket WebSocketConfig
	Presence  PresenceConfig
	Log       LogConfig
	Features  FeatureFlags
}

type ServerConfig struct {
	Port string
	Env  string
	Host string
}

type DatabaseConfig struct {
	Host           string
	Port           int
	Name           string
	User           string
	Password       string
	SSLMode        string
	MaxConnections int
	MaxIdleConns   int
}

type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type BrokerConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Exchange string
	Enabled  bool
}

type NewRelicConfig struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// CategoryRate is the fare table entry for one trip category
type CategoryRate struct {
	BaseFare  float64
	PerKM     float64
	PerMinute float64
}

type PricingConfig struct {
	Currency string
	Rates    map[string]CategoryRate
}

type ProximityConfig struct {
	DefaultRadiusKM float64
	MaxRadiusKM     float64
	MaxResults      int
}

type RateLimitConfig struct {
	Enabled                  bool
	LocationUpdatesPerSecond int
	TripRequestsPerMinute    int
	BidsPerMinute            int
	GeneralPerMinute         int
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
}

type PresenceConfig struct {
	LocationTTL time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type FeatureFlags struct {
	EnableRealTimeUpdates bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvAsInt("DB_PORT", 5432),
			Name:           getEnv("DB_NAME", "ridein"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 100),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 10),
		},
		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			MaxRetries:  getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:    getEnvAsInt("REDIS_POOL_SIZE", 100),
			MinIdleConn: 10,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		},
		Broker: BrokerConfig{
			Host:     getEnv("BROKER_HOST", "localhost"),
			Port:     getEnv("BROKER_PORT", "5672"),
			User:     getEnv("BROKER_USER", "guest"),
			Password: getEnv("BROKER_PASSWORD", "guest"),
			Exchange: getEnv("BROKER_EXCHANGE", "dispatch_events"),
			Enabled:  getEnvAsBool("BROKER_ENABLED", false),
		},
		NewRelic: NewRelicConfig{
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			AppName:    getEnv("NEW_RELIC_APP_NAME", "RideIn-Dispatch"),
			Enabled:    getEnvAsBool("NEW_RELIC_ENABLED", true),
			LogLevel:   getEnv("NEW_RELIC_LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your_jwt_secret_key_here"),
			Expiry: parseDuration(getEnv("JWT_EXPIRY", "24h"), 24*time.Hour),
		},
		Pricing: PricingConfig{
			Currency: getEnv("PRICING_CURRENCY", "USD"),
			Rates: map[string]CategoryRate{
				"standard": {
					BaseFare:  getEnvAsFloat64("FARE_BASE_STANDARD", 1.00),
					PerKM:     getEnvAsFloat64("FARE_PER_KM_STANDARD", 0.50),
					PerMinute: getEnvAsFloat64("FARE_PER_MIN_STANDARD", 0.05),
				},
				"comfort": {
					BaseFare:  getEnvAsFloat64("FARE_BASE_COMFORT", 1.50),
					PerKM:     getEnvAsFloat64("FARE_PER_KM_COMFORT", 0.75),
					PerMinute: getEnvAsFloat64("FARE_PER_MIN_COMFORT", 0.08),
				},
				"luxury": {
					BaseFare:  getEnvAsFloat64("FARE_BASE_LUXURY", 3.00),
					PerKM:     getEnvAsFloat64("FARE_PER_KM_LUXURY", 1.50),
					PerMinute: getEnvAsFloat64("FARE_PER_MIN_LUXURY", 0.15),
				},
				"van": {
					BaseFare:  getEnvAsFloat64("FARE_BASE_VAN", 5.00),
					PerKM:     getEnvAsFloat64("FARE_PER_KM_VAN", 1.20),
					PerMinute: getEnvAsFloat64("FARE_PER_MIN_VAN", 0.10),
				},
				"truck": {
					BaseFare:  getEnvAsFloat64("FARE_BASE_TRUCK", 10.00),
					PerKM:     getEnvAsFloat64("FARE_PER_KM_TRUCK", 2.00),
					PerMinute: getEnvAsFloat64("FARE_PER_MIN_TRUCK", 0.15),
				},
				"lorry": {
					BaseFare:  getEnvAsFloat64("FARE_BASE_LORRY", 20.00),
					PerKM:     getEnvAsFloat64("FARE_PER_KM_LORRY", 3.50),
					PerMinute: getEnvAsFloat64("FARE_PER_MIN_LORRY", 0.20),
				},
			},
		},
		Proximity: ProximityConfig{
			DefaultRadiusKM: getEnvAsFloat64("PROXIMITY_DEFAULT_RADIUS_KM", 5.0),
			MaxRadiusKM:     getEnvAsFloat64("PROXIMITY_MAX_RADIUS_KM", 50.0),
			MaxResults:      getEnvAsInt("PROXIMITY_MAX_RESULTS", 50),
		},
		RateLimit: RateLimitConfig{
			Enabled:                  getEnvAsBool("RATE_LIMIT_ENABLED", true),
			LocationUpdatesPerSecond: getEnvAsInt("RATE_LIMIT_LOCATION_UPDATES_PER_SECOND", 2),
			TripRequestsPerMinute:    getEnvAsInt("RATE_LIMIT_TRIP_REQUESTS_PER_MINUTE", 5),
			BidsPerMinute:            getEnvAsInt("RATE_LIMIT_BIDS_PER_MINUTE", 20),
			GeneralPerMinute:         getEnvAsInt("RATE_LIMIT_GENERAL_PER_MINUTE", 100),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 1024),
		},
		Presence: PresenceConfig{
			LocationTTL: time.Duration(getEnvAsInt("PRESENCE_LOCATION_TTL_SECONDS", 300)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Features: FeatureFlags{
			EnableRealTimeUpdates: getEnvAsBool("ENABLE_REAL_TIME_UPDATES", true),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWT.Secret == "your_jwt_secret_key_here" && c.Server.Env == "production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Proximity.DefaultRadiusKM <= 0 || c.Proximity.DefaultRadiusKM > c.Proximity.MaxRadiusKM {
		return fmt.Errorf("PROXIMITY_DEFAULT_RADIUS_KM must be positive and no greater than PROXIMITY_MAX_RADIUS_KM")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
