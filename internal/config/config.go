package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	MongoDB MongoDBConfig
	Remote  RemoteConfig
	Sync    SyncConfig
	Harvest HarvestConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for the local MongoDB ledger store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RemoteConfig describes the remote sheet sink. ScriptURL points at an Apps
// Script web app; CredentialsPath/SpreadsheetID enable the direct Sheets API
// sink instead. Both empty means sync is disabled.
type RemoteConfig struct {
	ScriptURL       string
	CredentialsPath string
	SpreadsheetID   string
	DataRange       string
}

// SyncConfig holds scheduler-related settings for opportunistic sync.
type SyncConfig struct {
	CronSchedule string
}

// HarvestConfig carries measurement defaults.
type HarvestConfig struct {
	DefaultCrateWeight float64
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

	crateWeight, err := strconv.ParseFloat(getenvWithDefault("DEFAULT_CRATE_WEIGHT", "1.8"), 64)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_CRATE_WEIGHT must be numeric: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "harvestledger"),
		},
		Remote: RemoteConfig{
			ScriptURL:       os.Getenv("GOOGLE_SHEET_URL"),
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			DataRange:       getenvWithDefault("GOOGLE_SHEET_DATA_RANGE", "Harvest!A:J"),
		},
		Sync: SyncConfig{
			CronSchedule: getenvWithDefault("SYNC_CRON_SCHEDULE", "*/2 * * * *"),
		},
		Harvest: HarvestConfig{
			DefaultCrateWeight: crateWeight,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated. The
// remote sink is deliberately optional; without one the ledger still works
// fully offline and sync reports a configuration error when attempted.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Remote.CredentialsPath != "" && c.Remote.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided when credentials are set")
	}

	if c.Sync.CronSchedule == "" {
		return errors.New("SYNC_CRON_SCHEDULE must be provided")
	}

	if c.Harvest.DefaultCrateWeight <= 0 {
		return errors.New("DEFAULT_CRATE_WEIGHT must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
