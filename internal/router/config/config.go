package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	PostgresDriver = "postgres"
	MemoryDriver   = "memory"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	PostgresConn   string        `mapstructure:"POSTGRES_CONN"`
	PostgresUser   string        `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass   string        `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost   string        `mapstructure:"POSTGRES_HOST"`
	PostgresPort   string        `mapstructure:"POSTGRES_PORT"`
	PostgresDB     string        `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL   string        `mapstructure:"MIGRATION_URL"`
	StorageDriver  string        `mapstructure:"STORAGE_DRIVER"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
}

var keys = []string{
	"SERVER_ADDRESS", "POSTGRES_CONN", "POSTGRES_USERNAME", "POSTGRES_PASSWORD", "POSTGRES_HOST",
	"POSTGRES_PORT", "POSTGRES_DATABASE", "MIGRATION_URL", "STORAGE_DRIVER", "JWT_SECRET",
	"TOKEN_TTL", "REQUEST_TIMEOUT", "LOG_LEVEL",
}

// LoadConfig загружает конфигурацию из файла app.env в каталоге path.
// Переменные окружения имеют приоритет над файлом; отсутствие файла допустимо.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("MIGRATION_URL", "file://migrations")
	v.SetDefault("STORAGE_DRIVER", PostgresDriver)
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()
	for _, key := range keys {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return
	}
	err = cfg.validate()
	return
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case PostgresDriver:
		if c.PostgresConn == "" && c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_CONN or POSTGRES_HOST is required for storage driver %q", c.StorageDriver)
		}
	case MemoryDriver:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}
