package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PostStoreMongo  = "mongo"
	PostStoreMemory = "memory"
)

type Config struct {
	DatabaseURL string
	MongoURI    string
	MongoDB     string
	PostStore   string
	RedisURL    string
	JWTSecret   string
	ServerPort  string
	Environment string
	LogLevel    string
	JWTExpiry   time.Duration

	CORSOrigins []string

	// Rate limiting
	RateLimitEnabled         bool
	RateLimitMaxRequests     int
	RateLimitAuthMaxRequests int
	RateLimitWindow          time.Duration
}

func Load() *Config {
	// Try to load .env file, but don't fail if it doesn't exist
	// (Docker containers use environment variables directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "newsletter"),
		PostStore:   getEnv("POST_STORE", PostStoreMongo),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		ServerPort:  getEnv("SERVER_PORT", ":8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		JWTExpiry:   getEnvAsDuration("JWT_EXPIRY", "24h"),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		RateLimitEnabled:         getEnvAsBool("RATE_LIMIT_ENABLED", true),
		RateLimitMaxRequests:     getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitAuthMaxRequests: getEnvAsInt("RATE_LIMIT_AUTH_MAX_REQUESTS", 10),
		RateLimitWindow:          getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if cfg.PostStore != PostStoreMongo && cfg.PostStore != PostStoreMemory {
		log.Fatalf("Invalid POST_STORE %q (want %q or %q)", cfg.PostStore, PostStoreMongo, PostStoreMemory)
	}

	return cfg
}

// IsProduction reports whether cookies and HSTS should assume HTTPS.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvAsInt retrieves environment variable as int with default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %t", key, defaultVal)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves environment variable as duration with default value
func getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		valStr = defaultVal
	}
	duration, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		duration, _ = time.ParseDuration(defaultVal)
	}
	return duration
}

// getEnvAsList splits a comma separated variable, dropping empty items
func getEnvAsList(key string, defaultVal []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(valStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
