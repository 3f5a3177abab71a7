// Package config resolves the server configuration from an optional JSON
// file and NS_* environment variables. Command-line flags are applied on
// top by the serve command.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Storage backends.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// Config holds the server configuration.
type Config struct {
	Port       int    `json:"port"`
	DataDir    string `json:"data_dir"`
	Backend    string `json:"backend"`
	SQLitePath string `json:"sqlite_path"`
	AdminToken string `json:"admin_token"`
	LogLevel   string `json:"log_level"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Port:     8000,
		DataDir:  "article",
		Backend:  BackendFS,
		LogLevel: "info",
	}
}

// LoadFile overlays the JSON file at path onto the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from NS_* variables looked up with getenv.
// Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("NS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NS_PORT: %w", err)
		}
		c.Port = p
	}
	for key, field := range map[string]*string{
		"NS_DATA_DIR":    &c.DataDir,
		"NS_BACKEND":     &c.Backend,
		"NS_SQLITE_PATH": &c.SQLitePath,
		"NS_ADMIN_TOKEN": &c.AdminToken,
		"NS_LOG_LEVEL":   &c.LogLevel,
	} {
		if v := getenv(key); v != "" {
			*field = v
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port,
			validation.Required.Error("port is required"),
			validation.Min(1).Error("port must be between 1 and 65535"),
			validation.Max(65535).Error("port must be between 1 and 65535"),
		),
		validation.Field(&c.DataDir,
			validation.Required.Error("data dir is required"),
		),
		validation.Field(&c.Backend,
			validation.Required.Error("backend is required"),
			validation.In(BackendFS, BackendSQLite).Error("backend must be fs or sqlite"),
		),
		validation.Field(&c.SQLitePath,
			validation.When(c.Backend == BackendSQLite,
				validation.Required.Error("sqlite path is required for the sqlite backend")),
		),
		validation.Field(&c.LogLevel,
			validation.In("debug", "info", "warn", "error").Error("log level must be debug, info, warn or error"),
		),
	)
}
