package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/db"
)

// Config is the process configuration: database, HTTP listener and the
// catalogue directories the registries load at startup.
type Config struct {
	Database   db.Config
	ListenAddr string
	// PropertyCatalogDir holds the per-entity-type property catalogues.
	PropertyCatalogDir string
	// ModuleConfigDir holds the per-module view configurations.
	ModuleConfigDir string
	// AllowedOrigins is the CORS allowlist for the JSON API.
	AllowedOrigins []string
	// ExportDir is where generated XLSX exports are written.
	ExportDir string
}

// Default returns the configuration used when no config file or env
// overrides are present.
func Default() Config {
	return Config{
		Database:           db.DefaultConfig(),
		ListenAddr:         ":8080",
		PropertyCatalogDir: "./catalog/properties",
		ModuleConfigDir:    "./catalog/modules",
		AllowedOrigins:     []string{"http://localhost:3000"},
		ExportDir:          "./exports",
	}
}

// Load reads config.yaml from configPath with environment overrides.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()      // allow environment overrides
	v.SetEnvPrefix("RIP") // map env vars like RIP_DATABASE_HOST

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.listen")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

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
	if v.IsSet("server.listen") {
		cfg.ListenAddr = v.GetString("server.listen")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("catalog.properties_dir") {
		cfg.PropertyCatalogDir = v.GetString("catalog.properties_dir")
	}
	if v.IsSet("catalog.modules_dir") {
		cfg.ModuleConfigDir = v.GetString("catalog.modules_dir")
	}
	if v.IsSet("export.dir") {
		cfg.ExportDir = v.GetString("export.dir")
	}

	return cfg, nil
}
