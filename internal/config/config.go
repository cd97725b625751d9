package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	PostgresURL        string `mapstructure:"POSTGRES_URL"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	ServerPort         string `mapstructure:"SERVER_PORT"`
	SearchBaseURL      string `mapstructure:"SEARCH_BASE_URL"`
	NavTimeout         int    `mapstructure:"NAV_TIMEOUT"`          // seconds, page load
	ResultWaitTimeout  int    `mapstructure:"RESULT_WAIT_TIMEOUT"`  // seconds, first search result
	ResultNavTimeout   int    `mapstructure:"RESULT_NAV_TIMEOUT"`   // seconds, click-through navigation
	PriceWaitTimeout   int    `mapstructure:"PRICE_WAIT_TIMEOUT"`   // seconds, price element
	ReadDelayMinMs     int    `mapstructure:"READ_DELAY_MIN_MS"`
	ReadDelayMaxMs     int    `mapstructure:"READ_DELAY_MAX_MS"`
	TargetSpacingMs    int    `mapstructure:"TARGET_SPACING_MS"`
	RecheckWindowHours int    `mapstructure:"RECHECK_WINDOW_HOURS"` // 0 disables the skip cache
}

// Load reads configuration from file or environment variables.
// POSTGRES_URL has no default on purpose: the registry connection must be
// injected explicitly, and startup fails without it.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = viper.ReadInConfig()

	// Keys without defaults must be bound explicitly for AutomaticEnv to
	// surface them through Unmarshal.
	_ = viper.BindEnv("POSTGRES_URL")
	_ = viper.BindEnv("REDIS_ADDR")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SEARCH_BASE_URL", "https://www.amazon.in/s")
	viper.SetDefault("NAV_TIMEOUT", 30)
	viper.SetDefault("RESULT_WAIT_TIMEOUT", 5)
	viper.SetDefault("RESULT_NAV_TIMEOUT", 10)
	viper.SetDefault("PRICE_WAIT_TIMEOUT", 10)
	viper.SetDefault("READ_DELAY_MIN_MS", 2000)
	viper.SetDefault("READ_DELAY_MAX_MS", 4000)
	viper.SetDefault("TARGET_SPACING_MS", 5000)
	viper.SetDefault("RECHECK_WINDOW_HOURS", 0)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.PostgresURL == "" {
		return nil, errors.New("POSTGRES_URL is required")
	}
	return &cfg, nil
}
