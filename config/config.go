package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	ServerPort             string        `mapstructure:"SERVER_PORT"`
	GinMode                string        `mapstructure:"GIN_MODE"`
	CatalogPath            string        `mapstructure:"CATALOG_PATH"`
	DurationsPath          string        `mapstructure:"DURATIONS_PATH"`
	DefaultDurationMinutes int           `mapstructure:"DEFAULT_DURATION_MINUTES"`
	Mongo                  MongoConfig   `mapstructure:"MONGO"`
	Auth                   AuthConfig    `mapstructure:"AUTH"`
	Proxy                  ProxyConfig   `mapstructure:"PROXY"`
}

// MongoConfig holds document database connection settings
type MongoConfig struct {
	URI      string `mapstructure:"URI"`
	Database string `mapstructure:"DATABASE"`
}

// AuthConfig holds identity-token validation settings.
// AdminEmail is the single account whose role is always Admin.
type AuthConfig struct {
	GoogleClientID string `mapstructure:"GOOGLE_CLIENT_ID"`
	AdminEmail     string `mapstructure:"ADMIN_EMAIL"`
}

// ProxyConfig holds settings for the upstream document proxy
type ProxyConfig struct {
	Timeout time.Duration `mapstructure:"TIMEOUT"`
}

// LoadConfig loads configuration from environment variables and config.yaml
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config") // config.yaml
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("SERVER_PORT", ":8080")
	viper.SetDefault("GIN_MODE", "debug") // gin.DebugMode, gin.ReleaseMode, gin.TestMode
	viper.SetDefault("CATALOG_PATH", "./catalog.yaml")
	viper.SetDefault("DURATIONS_PATH", "./durations.yaml")
	viper.SetDefault("DEFAULT_DURATION_MINUTES", 90)
	viper.SetDefault("MONGO.URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO.DATABASE", "pastprep")
	viper.SetDefault("AUTH.GOOGLE_CLIENT_ID", "")
	viper.SetDefault("AUTH.ADMIN_EMAIL", "admin@pastprep.example.com")
	viper.SetDefault("PROXY.TIMEOUT", "30s")

	// Read from config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("config.yaml not found, using environment variables and defaults")
		} else {
			return nil, fmt.Errorf("fatal error config file: %w", err)
		}
	}

	// Override with environment variables (e.g., PASTPREP_SERVER_PORT)
	viper.SetEnvPrefix("PASTPREP")
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return &cfg, nil
}
