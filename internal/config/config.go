package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Database DatabaseConfig
	Gemini   GeminiConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Qdrant   QdrantConfig
	Indexer  IndexerConfig
	Logger   LoggerConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type MongoConfig struct {
	URL        string
	Database   string
	Collection string
}

// DatabaseConfig points at the Postgres instance holding the upload ledger.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	EmbedModel  string
	MaxAttempts int
}

type StorageConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	Bucket      string
	PublicURL   string
	MaxFileSize int64
}

// RedisConfig leaves the profile cache off when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// QdrantConfig leaves profile search off when URL is empty.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type IndexerConfig struct {
	Concurrency int
	QueueSize   int
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found. Using environment and default values.")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8000"),
			Env:  getEnv("ENV", "development"),
		},
		Mongo: MongoConfig{
			URL:        getEnv("MONGODB_URL", "mongodb://localhost:27017"),
			Database:   getEnv("MONGODB_DATABASE", "users"),
			Collection: getEnv("MONGODB_COLLECTION", "Profile"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "resume_parser"),
		},
		Gemini: GeminiConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel:  getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			MaxAttempts: getEnvAsInt("GEMINI_MAX_ATTEMPTS", 1),
		},
		Storage: StorageConfig{
			Endpoint:    getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:   getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:   getEnv("MINIO_SECRET_KEY", "minioadmin"),
			UseSSL:      getEnvAsBool("MINIO_USE_SSL", false),
			Bucket:      getEnv("MINIO_BUCKET", "resumes"),
			PublicURL:   getEnv("MINIO_PUBLIC_URL", ""),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 5*1024*1024),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("CACHE_TTL", "10m"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "resume_chunks"),
		},
		Indexer: IndexerConfig{
			Concurrency: getEnvAsInt("INDEX_CONCURRENCY", 2),
			QueueSize:   getEnvAsInt("INDEX_QUEUE_SIZE", 100),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "pretty"),
		},
	}

	if cfg.Storage.PublicURL == "" {
		cfg.Storage.PublicURL = cfg.defaultPublicURL()
	}
	cfg.Storage.PublicURL = strings.TrimRight(cfg.Storage.PublicURL, "/")

	return cfg
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Storage.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Storage.MaxFileSize)
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("MINIO_BUCKET is required")
	}
	if _, err := url.Parse(c.Storage.PublicURL); err != nil {
		return fmt.Errorf("invalid MINIO_PUBLIC_URL: %w", err)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func (c *Config) defaultPublicURL() string {
	scheme := "http"
	if c.Storage.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Storage.Endpoint)
}

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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
