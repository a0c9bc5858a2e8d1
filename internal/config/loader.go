package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/rpattn/signalcat/internal/db"
)

// Config is the full server configuration.
type Config struct {
	Database db.Config
	Server   ServerConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Addr           string
	MigrationsPath string
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			MigrationsPath: "migrations",
		},
		Auth: AuthConfig{
			Secret:   "dev-secret-change-me",
			TokenTTL: 12 * time.Hour,
		},
	}
}

func Load(configPath string) (Config, error) {
	// Start with default
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv() // allow environment overrides
	v.SetEnvPrefix("SIGNALCAT")

	// Optional: Map nested keys to flat env vars
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("server.migrations_path")
	v.BindEnv("auth.secret")
	v.BindEnv("auth.token_ttl")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	// Override defaults if values exist
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.migrations_path") {
		cfg.Server.MigrationsPath = v.GetString("server.migrations_path")
	}
	if v.IsSet("auth.secret") {
		cfg.Auth.Secret = v.GetString("auth.secret")
	}
	if v.IsSet("auth.token_ttl") {
		cfg.Auth.TokenTTL = v.GetDuration("auth.token_ttl")
	}

	return cfg, nil
}
