package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

type Config struct {
	Port      string
	JWTSecret string

	// Storage
	StorageBackend string
	DatabaseURL    string
	BadgerDir      string

	// Magic links
	AppURL       string
	PublicAPIURL string

	// Push notifications (optional)
	FirebaseCredentialsBase64 string
	FirebaseCredentialsFile   string

	SyncPullConcurrency int
}

// Load reads .env when present, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:                      getEnv("PORT", "8080"),
		JWTSecret:                 os.Getenv("APP_JWT_SECRET"),
		StorageBackend:            getEnv("STORAGE_BACKEND", BackendBadger),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		BadgerDir:                 getEnv("BADGER_DIR", "data/badger"),
		AppURL:                    getEnv("APP_URL", "http://localhost:3000"),
		FirebaseCredentialsBase64: os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
		FirebaseCredentialsFile:   os.Getenv("FIREBASE_CREDENTIALS_FILE"),
	}
	cfg.PublicAPIURL = getEnv("PUBLIC_API_URL", "http://localhost:"+cfg.Port)

	var err error
	if cfg.SyncPullConcurrency, err = getInt("SYNC_PULL_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("APP_JWT_SECRET is not set")
	}
	switch c.StorageBackend {
	case BackendBadger:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.SyncPullConcurrency < 1 {
		return fmt.Errorf("SYNC_PULL_CONCURRENCY must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
