package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Store backend selectors.
const (
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendMongoDB = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Auth      AuthConfig
	AI        AIConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StoreConfig selects and parameterizes the record-store backend.
type StoreConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MongoURI      string
	MongoDBName   string
}

// AuthConfig holds credential hashing options.
type AuthConfig struct {
	BcryptCost int
}

// AIConfig holds settings for the Gemini advice client. An empty key disables
// the client; advice requests then answer with the fallback text.
type AIConfig struct {
	GeminiKey string
}

// SheetsConfig configures the optional herd snapshot export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	SnapshotRange   string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
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
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB must be an integer: %w", err)
		}
		redisDB = parsed
	}

	bcryptCost := bcrypt.DefaultCost
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("BCRYPT_COST must be an integer: %w", err)
		}
		bcryptCost = parsed
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Store: StoreConfig{
			Backend:       getenvWithDefault("STORE_BACKEND", BackendMemory),
			RedisAddr:     getenvWithDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       redisDB,
			MongoURI:      os.Getenv("MONGODB_URI"),
			MongoDBName:   getenvWithDefault("MONGODB_DB_NAME", "vimacontrol"),
		},
		Auth: AuthConfig{
			BcryptCost: bcryptCost,
		},
		AI: AIConfig{
			GeminiKey: os.Getenv("GEMINI_API_KEY"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORT_ID"),
			SnapshotRange:   getenvWithDefault("GOOGLE_SHEET_REPORT_RANGE", "Herd!A:F"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("SNAPSHOT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "America/Sao_Paulo"),
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

	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("REDIS_ADDR must be provided for the redis backend")
		}
	case BackendMongoDB:
		if c.Store.MongoURI == "" {
			return errors.New("MONGODB_URI must be provided for the mongodb backend")
		}
		if c.Store.MongoDBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of %s, %s, %s", BackendMemory, BackendRedis, BackendMongoDB)
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	// Sheets export is optional, but a partial configuration is a mistake.
	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_REPORT_ID must be provided together")
	}

	if c.SheetsEnabled() {
		if c.Sheets.SnapshotRange == "" {
			return errors.New("GOOGLE_SHEET_REPORT_RANGE must not be empty")
		}
		if c.Reporting.CronSchedule == "" {
			return errors.New("SNAPSHOT_CRON_SCHEDULE must be provided")
		}
		if c.Reporting.Timezone == "" {
			return errors.New("TIMEZONE must be provided")
		}
	}

	return nil
}

// SheetsEnabled reports whether the snapshot export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
