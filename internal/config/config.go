package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	API       APIConfig       `mapstructure:"api"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Narration NarrationConfig `mapstructure:"narration"`
	Seed      SeedConfig      `mapstructure:"seed"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// APIConfig guards the HTTP surface. Authentication proper is handled
// upstream; the key only keeps the engine off the open internet.
type APIConfig struct {
	Key string `mapstructure:"key"`
}

// EngineConfig holds the arbitration policy knobs.
type EngineConfig struct {
	// CountRestingAsOccupied includes resting clients in equipment
	// occupancy counts. Conservative default: true.
	CountRestingAsOccupied bool `mapstructure:"count_resting_as_occupied"`
}

// NotifyConfig configures the outbound alert webhook. Empty URL means
// alerts are only persisted and logged.
type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Secret     string        `mapstructure:"secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// NarrationConfig configures the optional decision-narration service.
type NarrationConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SeedConfig points at an optional facility catalog applied at startup.
type SeedConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// --- Environment Variable Handling ---
	viper.AutomaticEnv()
	// Nested keys map to env vars, e.g. server.address -> SERVER_ADDRESS
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// --- Defaults ---
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "session_engine")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("engine.count_resting_as_occupied", true)
	viper.SetDefault("notify.token_ttl", "2m")
	viper.SetDefault("narration.timeout", "10s")

	// --- Read Config File ---
	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Config file not found; env vars and defaults are enough
		err = nil
	} else if err != nil {
		return
	}

	// --- Unmarshal Config ---
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
