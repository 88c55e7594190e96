package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the gateway.
type Config struct {
	HTTPPort    string
	JWTSecret   []byte
	AdminEmails []string
	Mongo       MongoConfig
	Redis       RedisConfig
	Provider    ProviderConfig
	Settings    SettingsConfig
	Maintenance MaintenanceConfig
}

// MongoConfig holds document store connection settings. URI may be empty, in
// which case settings fall back to file storage and cache, rate limiting and
// monitoring persistence are disabled.
type MongoConfig struct {
	URI            string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// RedisConfig holds Redis connection settings for the monitoring queue
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ProviderConfig holds AI provider settings
type ProviderConfig struct {
	GeminiAPIKey   string
	GroqAPIKey     string
	RequestTimeout time.Duration // per-attempt timeout for vendor calls
	MaxAttempts    int           // primary attempts before failover
	RetryBackoff   time.Duration // wait between primary attempts
}

// SettingsConfig holds settings persistence options
type SettingsConfig struct {
	DataDir string // directory for the file-backed settings repository
}

// MaintenanceConfig holds background cleanup intervals
type MaintenanceConfig struct {
	CacheSweepInterval time.Duration
	LogRetentionDays   int
	LogSweepInterval   time.Duration
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func getEnvStringList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:    getEnvString("HTTP_PORT", "8080"),
		JWTSecret:   []byte(getEnvString("JWT_SECRET", "supersecretkey")),
		AdminEmails: getEnvStringList("ADMIN_EMAILS"),
		Mongo: MongoConfig{
			URI:            os.Getenv("MONGODB_URI"),
			ConnectTimeout: getEnvDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			MaxPoolSize:    uint64(getEnvInt("MONGODB_MAX_POOL_SIZE", 100)),
		},
		Redis: RedisConfig{
			Address:      getEnvString("REDIS_ADDRESS", ""),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Provider: ProviderConfig{
			GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
			GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
			RequestTimeout: getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 12*time.Second),
			MaxAttempts:    getEnvInt("PROVIDER_MAX_ATTEMPTS", 2),
			RetryBackoff:   getEnvDuration("PROVIDER_RETRY_BACKOFF", 1*time.Second),
		},
		Settings: SettingsConfig{
			DataDir: getEnvString("SETTINGS_DATA_DIR", "data"),
		},
		Maintenance: MaintenanceConfig{
			CacheSweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", 1*time.Hour),
			LogRetentionDays:   getEnvInt("LOG_RETENTION_DAYS", 30),
			LogSweepInterval:   getEnvDuration("LOG_SWEEP_INTERVAL", 24*time.Hour),
		},
	}

	if cfg.Provider.GeminiAPIKey == "" && cfg.Provider.GroqAPIKey == "" {
		return nil, fmt.Errorf("at least one of GEMINI_API_KEY or GROQ_API_KEY is required")
	}

	return cfg, nil
}
