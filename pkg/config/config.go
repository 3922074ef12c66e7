package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// devSecretKey signs sessions in development when SECRET_KEY is unset.
const devSecretKey = "insecure-development-secret-key"

type Config struct {
	Port                    string
	Env                     string
	PostgresConnStr         string
	SecretKey               string
	SessionTTL              time.Duration
	MediaRoot               string
	MongoURI                string
	MongoDatabase           string
	RedisURL                string
	IndexCacheTTL           time.Duration
	NatsURL                 string
	SendGridAPIKey          string
	MailFrom                string
	SiteURL                 string
	FirebaseCredentialsPath string
	LoginRateLimit          time.Duration
	LoginRateBurst          int
}

// Load reads the configuration from the environment, after loading a .env
// file if there is one.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, assuming environment variables are set")
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		SecretKey:               getEnv("SECRET_KEY", ""),
		SessionTTL:              getEnvAsDuration("SESSION_TTL", 14*24*time.Hour),
		MediaRoot:               getEnv("MEDIA_ROOT", "media"),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "yatube"),
		RedisURL:                getEnv("REDIS_URL", ""),
		IndexCacheTTL:           getEnvAsDuration("INDEX_CACHE_TTL", 0),
		NatsURL:                 getEnv("NATS_URL", ""),
		SendGridAPIKey:          getEnv("SENDGRID_API_KEY", ""),
		MailFrom:                getEnv("MAIL_FROM", "noreply@yatube.local"),
		SiteURL:                 getEnv("SITE_URL", "http://localhost:8080"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		LoginRateLimit:          getEnvAsDuration("LOGIN_RATE_LIMIT", time.Second),
		LoginRateBurst:          getEnvAsInt("LOGIN_RATE_BURST", 5),
	}

	if cfg.PostgresConnStr == "" {
		return nil, errors.New("POSTGRES_CONN_STR environment variable not set")
	}
	if cfg.SecretKey == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("SECRET_KEY environment variable not set")
		}
		slog.Warn("SECRET_KEY not set, using an insecure development key")
		cfg.SecretKey = devSecretKey
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}
