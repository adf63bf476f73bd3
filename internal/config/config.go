package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"

	"recycle-bot/internal/storage"
	redisclient "recycle-bot/pkg/redis"
)

type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN,required,notEmpty"`
	TelegramDebug bool   `env:"TELEGRAM_DEBUG" envDefault:"false"`

	DBHost            string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort            int           `env:"DB_PORT" envDefault:"5432"`
	DBUser            string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword        string        `env:"DB_PASSWORD"`
	DBName            string        `env:"DB_NAME" envDefault:"recycle"`
	DBSSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"2m"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	// SessionTTL of zero keeps unfinished dialogues until /cancel.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"0s"`

	AdminIDs   []int64 `env:"ADMIN_IDS" envSeparator:","`
	DriverIDs  []int64 `env:"DRIVER_IDS" envSeparator:","`
	AdminPhone string  `env:"ADMIN_PHONE"`

	MaterialsFile   string `env:"MATERIALS_FILE"`
	ReportChunkSize int    `env:"REPORT_CHUNK_SIZE" envDefault:"4000"`
	MigrateOnStart  bool   `env:"MIGRATE_ON_START" envDefault:"true"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.AdminIDs) == 0 {
		return errors.New("at least one admin ID is required")
	}
	if c.ReportChunkSize <= 0 {
		return fmt.Errorf("REPORT_CHUNK_SIZE must be positive, got %d", c.ReportChunkSize)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative, got %s", c.SessionTTL)
	}
	return nil
}

func (c *Config) Postgres() storage.Config {
	return storage.Config{
		Host:            c.DBHost,
		Port:            c.DBPort,
		User:            c.DBUser,
		Password:        c.DBPassword,
		DBName:          c.DBName,
		SSLMode:         c.DBSSLMode,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
		ConnMaxIdleTime: c.DBConnMaxIdleTime,
	}
}

// DSN renders the lib/pq connection string.
func (c *Config) DSN() string {
	return c.Postgres().DSN()
}

func (c *Config) Redis() redisclient.Options {
	return redisclient.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
