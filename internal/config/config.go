// Package config loads application configuration from the environment and
// an optional YAML file using viper. Environment variables always win over
// the file; the file wins over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"

	"checklater/internal/database"
)

// EnvConfigFile names the environment variable holding the config file path.
const EnvConfigFile = "CHECKLATER_CONFIG"

// defaultPostgresPassword is rejected in production.
const defaultPostgresPassword = "changeme"

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Backing store
	DBDriver   string // "sqlite3" or "postgres"
	SQLitePath string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache). Caching is off when ValkeyHost is empty.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible export archive. Archiving is off when S3Endpoint is empty.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	// Telegram
	TelegramToken  string
	TelegramAPIURL string
	WebhookURL     string
	WebhookSecret  string

	// Behaviour
	SuggestionLimit int
	StoreTimeout    time.Duration
	ClassifierRules string // path to a rules YAML file; empty uses the built-in rules

	// Webhook rate limiting
	RateLimit  int
	RateWindow time.Duration
	TrustProxy bool
}

// defaults are keyed by the lowercase form of the environment variable.
var defaults = map[string]any{
	"app_host": "0.0.0.0",
	"app_port": "8080",
	"app_env":  "development",

	"db_driver":      database.DriverSQLite,
	"db_sqlite_path": "checklater.db",

	"postgres_host":     "localhost",
	"postgres_port":     "5432",
	"postgres_user":     "checklater",
	"postgres_password": defaultPostgresPassword,
	"postgres_db":       "checklater",

	"valkey_host":     "",
	"valkey_port":     "6379",
	"valkey_password": "",

	"s3_endpoint":   "",
	"s3_region":     "us-east-1",
	"s3_access_key": "",
	"s3_secret_key": "",
	"s3_bucket":     "checklater",

	"telegram_bot_token":      "",
	"telegram_api_url":        "https://api.telegram.org",
	"telegram_webhook_url":    "",
	"telegram_webhook_secret": "",

	"suggestion_limit": 3,
	"store_timeout":    "5s",
	"classifier_rules": "",

	"rate_limit":  120,
	"rate_window": "1m",
	"trust_proxy": false,
}

// Load builds the configuration. configFile may be empty, in which case the
// CHECKLATER_CONFIG environment variable is consulted; a named file that
// cannot be read is an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile == "" {
		configFile = v.GetString(strings.ToLower(EnvConfigFile))
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Host: v.GetString("app_host"),
		Port: v.GetString("app_port"),
		Env:  strings.ToLower(v.GetString("app_env")),

		DBDriver:   strings.ToLower(v.GetString("db_driver")),
		SQLitePath: v.GetString("db_sqlite_path"),
		DBHost:     v.GetString("postgres_host"),
		DBPort:     v.GetString("postgres_port"),
		DBUser:     v.GetString("postgres_user"),
		DBPassword: v.GetString("postgres_password"),
		DBName:     v.GetString("postgres_db"),

		ValkeyHost:     v.GetString("valkey_host"),
		ValkeyPort:     v.GetString("valkey_port"),
		ValkeyPassword: v.GetString("valkey_password"),

		S3Endpoint:  v.GetString("s3_endpoint"),
		S3Region:    v.GetString("s3_region"),
		S3AccessKey: v.GetString("s3_access_key"),
		S3SecretKey: v.GetString("s3_secret_key"),
		S3Bucket:    v.GetString("s3_bucket"),

		TelegramToken:  v.GetString("telegram_bot_token"),
		TelegramAPIURL: v.GetString("telegram_api_url"),
		WebhookURL:     v.GetString("telegram_webhook_url"),
		WebhookSecret:  v.GetString("telegram_webhook_secret"),

		SuggestionLimit: v.GetInt("suggestion_limit"),
		StoreTimeout:    v.GetDuration("store_timeout"),
		ClassifierRules: v.GetString("classifier_rules"),

		RateLimit:  v.GetInt("rate_limit"),
		RateWindow: v.GetDuration("rate_window"),
		TrustProxy: v.GetBool("trust_proxy"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.DBDriver {
	case database.DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("DB_SQLITE_PATH must not be empty"))
		}
	case database.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", database.DriverSQLite, database.DriverPostgres, c.DBDriver))
	}

	if c.SuggestionLimit <= 0 {
		errs = append(errs, fmt.Errorf("SUGGESTION_LIMIT must be positive, got %d", c.SuggestionLimit))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, fmt.Errorf("STORE_TIMEOUT must be positive, got %s", c.StoreTimeout))
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT and RATE_WINDOW must be positive"))
	}

	if c.Env == "production" {
		if c.TelegramToken == "" {
			errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN must be set in production"))
		}
		if c.DBDriver == database.DriverPostgres && c.DBPassword == defaultPostgresPassword {
			errs = append(errs, errors.New("POSTGRES_PASSWORD must be set in production"))
		}
	}

	return errors.Join(errs...)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == database.DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ValkeyEnabled reports whether a Valkey host is configured.
func (c *Config) ValkeyEnabled() bool {
	return c.ValkeyHost != ""
}

// S3Enabled reports whether an S3 endpoint is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != ""
}
