package mysqlclient

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPort is the MySQL server port used when none is configured.
const DefaultPort = 3306

// Config is the root configuration for a client process. It is loaded from
// YAML and can be overridden by environment variables.
type Config struct {
	Library    LibraryConfig    `yaml:"library"`
	Connection ConnectionConfig `yaml:"connection"`
	Logging    LogConfig        `yaml:"logging"`
}

// LibraryConfig holds the arguments passed to the native library init.
type LibraryConfig struct {
	Args   []string `yaml:"args"`
	Groups []string `yaml:"groups"`
}

// ConnectionConfig holds the connect parameters of a Connection.
type ConnectionConfig struct {
	Host     string `yaml:"host" validate:"required_without=Socket"`
	Port     uint   `yaml:"port" validate:"max=65535"`
	Database string `yaml:"database"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Socket   string `yaml:"socket"`
	Flags    uint64 `yaml:"flags"`

	// AutoCommit is applied after connecting when set.
	AutoCommit *bool `yaml:"autocommit"`
}

// LogConfig controls the logger built by NewLogger.
type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"oneof=json console"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads configuration from a YAML file, applies environment
// variable overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Connection: ConnectionConfig{
			Host: "localhost",
			Port: DefaultPort,
		},
		Logging: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MYSQLCLIENT_KEY
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MYSQLCLIENT_HOST"); v != "" {
		cfg.Connection.Host = v
	}
	if v := os.Getenv("MYSQLCLIENT_PORT"); v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("parsing MYSQLCLIENT_PORT: %w", err)
		}
		cfg.Connection.Port = uint(port)
	}
	if v := os.Getenv("MYSQLCLIENT_DATABASE"); v != "" {
		cfg.Connection.Database = v
	}
	if v := os.Getenv("MYSQLCLIENT_USER"); v != "" {
		cfg.Connection.User = v
	}
	if v := os.Getenv("MYSQLCLIENT_PASSWORD"); v != "" {
		cfg.Connection.Password = v
	}
	if v := os.Getenv("MYSQLCLIENT_SOCKET"); v != "" {
		cfg.Connection.Socket = v
	}
	return nil
}

// Validate checks the configuration for missing or out-of-range values.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
