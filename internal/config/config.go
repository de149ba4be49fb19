package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported durable backends for the cart record.
const (
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendMongoDB = "mongodb"
)

// DefaultStorageKey is the key every storefront surface agrees on.
const DefaultStorageKey = "medimart_cart"

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Cart     CartConfig
	Redis    RedisConfig
	MongoDB  MongoDBConfig
	Catalog  CatalogConfig
	Sheets   SheetsConfig
	Checkout CheckoutConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// CartConfig selects where the cart record lives and how often it is reconciled.
type CartConfig struct {
	Backend      string
	StorageKey   string
	PollInterval time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI        string
	DBName     string
	Collection string
}

// CatalogConfig points at the storefront REST API used for product snapshots.
// An empty BaseURL disables add-by-id.
type CatalogConfig struct {
	BaseURL string
	Token   string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// CheckoutConfig controls where completed checkouts are recorded.
type CheckoutConfig struct {
	SheetRange string
}

// Enabled reports whether the checkout ledger spreadsheet is configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	pollInterval, err := getenvDuration("CART_POLL_INTERVAL", time.Second)
	if err != nil {
		return nil, err
	}
	redisDB, err := getenvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Cart: CartConfig{
			Backend:      strings.ToLower(getenvWithDefault("CART_BACKEND", BackendMemory)),
			StorageKey:   getenvWithDefault("CART_STORAGE_KEY", DefaultStorageKey),
			PollInterval: pollInterval,
		},
		Redis: RedisConfig{
			Addr:     getenvWithDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Channel:  getenvWithDefault("REDIS_CHANNEL", "medimart:cart:changed"),
		},
		MongoDB: MongoDBConfig{
			URI:        os.Getenv("MONGODB_URI"),
			DBName:     getenvWithDefault("MONGODB_DB_NAME", "medimart"),
			Collection: getenvWithDefault("MONGODB_COLLECTION", "cart_records"),
		},
		Catalog: CatalogConfig{
			BaseURL: os.Getenv("CATALOG_BASE_URL"),
			Token:   os.Getenv("CATALOG_TOKEN"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Checkout: CheckoutConfig{
			SheetRange: getenvWithDefault("CHECKOUT_SHEET_RANGE", "Orders!A:H"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Cart.StorageKey == "" {
		return errors.New("CART_STORAGE_KEY must not be empty")
	}

	if c.Cart.PollInterval < time.Second {
		return errors.New("CART_POLL_INTERVAL must be at least 1s")
	}

	switch c.Cart.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR must be provided")
		}
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("unsupported CART_BACKEND %q", c.Cart.Backend)
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	if c.Sheets.Enabled() && c.Checkout.SheetRange == "" {
		return errors.New("CHECKOUT_SHEET_RANGE must not be empty")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
