package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppName string `mapstructure:"APP_NAME"`

	HTTPAddr     string `mapstructure:"HTTP_ADDR"`
	RateLimitMax int    `mapstructure:"RATE_LIMIT_MAX"`

	DatabasePath string `mapstructure:"DATABASE_PATH"`

	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`
	AdminUsername     string        `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash string        `mapstructure:"ADMIN_PASSWORD_HASH"`

	SheetsEnabled     bool   `mapstructure:"SHEETS_ENABLED"`
	SheetsCredentials string `mapstructure:"SHEETS_CREDENTIALS"`
	SheetsSpreadsheet string `mapstructure:"SHEETS_SPREADSHEET_ID"`
	SheetsName        string `mapstructure:"SHEETS_NAME"`
}

var defaults = map[string]any{
	"APP_ENV":               "development",
	"APP_NAME":              "license-key-service",
	"HTTP_ADDR":             ":8080",
	"RATE_LIMIT_MAX":        60,
	"DATABASE_PATH":         "data/license.db",
	"JWT_SECRET":            "",
	"TOKEN_TTL":             24 * time.Hour,
	"ADMIN_USERNAME":        "admin",
	"ADMIN_PASSWORD_HASH":   "",
	"SHEETS_ENABLED":        false,
	"SHEETS_CREDENTIALS":    "",
	"SHEETS_SPREADSHEET_ID": "",
	"SHEETS_NAME":           "Licenses",
}

// Load reads configuration from the environment, optionally overlaid on a
// config.yaml in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing secrets. There is deliberately no built-in
// fallback for either of them.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if c.AdminPasswordHash == "" {
		return errors.New("ADMIN_PASSWORD_HASH environment variable is required")
	}
	if c.SheetsEnabled && (c.SheetsCredentials == "" || c.SheetsSpreadsheet == "") {
		return errors.New("SHEETS_CREDENTIALS and SHEETS_SPREADSHEET_ID are required when SHEETS_ENABLED is set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
