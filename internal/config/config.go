package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the server.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Live     LiveConfig     `mapstructure:"live"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// AllowedOrigins are host patterns accepted on websocket upgrades.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the record store. Driver is "mongo" or "memory".
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// LiveConfig tunes snapshot subscriptions.
type LiveConfig struct {
	Buffer       int           `mapstructure:"buffer"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig enables a rotating log file next to stderr. An empty File
// logs to stderr only.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ClientConfig is read by the fitlist CLI.
type ClientConfig struct {
	API     APIConfig     `mapstructure:"api"`
	Keyring KeyringConfig `mapstructure:"keyring"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// WatchConfig tunes `fitlist <kind> watch`. Buffer is how many snapshots
// may queue before the oldest is dropped.
type WatchConfig struct {
	Buffer int `mapstructure:"buffer"`
}

// KeyringConfig points the file keyring backend at Dir when no system
// keyring is available.
type KeyringConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoadConfig reads config.yaml from path, then environment variables
// (server.address -> SERVER_ADDRESS).
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"localhost:*", "127.0.0.1:*"})
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("database.name", "fitlist")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("live.buffer", 16)
	v.SetDefault("live.write_timeout", "10s")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	// Bound so AutomaticEnv can see keys that have no default.
	_ = v.BindEnv("jwt.secret")
	_ = v.BindEnv("log.file")

	if err = readOptional(v); err != nil {
		return
	}
	if err = v.Unmarshal(&config); err != nil {
		return
	}
	if config.Database.Driver != "mongo" && config.Database.Driver != "memory" {
		return config, errors.New(`database.driver must be "mongo" or "memory"`)
	}
	return config, nil
}

// LoadClientConfig reads fitlist.yaml from path, then FITLIST_* environment
// variables (api.url -> FITLIST_API_URL).
func LoadClientConfig(path string) (config ClientConfig, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("fitlist")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("fitlist")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("api.url", "http://localhost:8080")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("watch.buffer", 4)
	_ = v.BindEnv("keyring.dir")

	if err = readOptional(v); err != nil {
		return
	}
	err = v.Unmarshal(&config)
	return
}

// readOptional reads the config file if there is one.
func readOptional(v *viper.Viper) error {
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}
