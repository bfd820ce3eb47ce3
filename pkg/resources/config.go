package resources

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPHost          string
	HTTPPort          string
	DebugPort         string
	APIBaseURL        string
	APITimeout        time.Duration
	APICreateAttempts uint
	StoreDriver       string
	StorePath         string
	LogLevel          zerolog.Level
	OtelEnabled       bool
	OtelEndpoint      string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_HOST", "localhost")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DEBUG_PORT", "6060")
	v.SetDefault("API_BASE_URL", "http://localhost:3333")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("API_CREATE_ATTEMPTS", 3)
	v.SetDefault("STORE_DRIVER", "bbolt")
	v.SetDefault("STORE_PATH", "./var/cache.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_ENDPOINT", "localhost:4317")
}

// LoadConfig reads the environment, and CONFIG_FILE when set, into the global
// viper instance.
func LoadConfig() (*Config, error) {
	v := viper.GetViper()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)

		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return configFrom(v)
}

func configFrom(v *viper.Viper) (*Config, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("LOG_LEVEL")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	driver := strings.ToLower(v.GetString("STORE_DRIVER"))
	switch driver {
	case DriverMemory, DriverBolt, DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", driver)
	}

	timeout := v.GetDuration("API_TIMEOUT")
	if timeout <= 0 {
		return nil, fmt.Errorf("API_TIMEOUT must be positive")
	}

	return &Config{
		HTTPHost:          v.GetString("HTTP_HOST"),
		HTTPPort:          v.GetString("HTTP_PORT"),
		DebugPort:         v.GetString("DEBUG_PORT"),
		APIBaseURL:        v.GetString("API_BASE_URL"),
		APITimeout:        timeout,
		APICreateAttempts: v.GetUint("API_CREATE_ATTEMPTS"),
		StoreDriver:       driver,
		StorePath:         v.GetString("STORE_PATH"),
		LogLevel:          level,
		OtelEnabled:       v.GetBool("OTEL_ENABLED"),
		OtelEndpoint:      v.GetString("OTEL_ENDPOINT"),
	}, nil
}
