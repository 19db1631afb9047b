package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Environment   string `envconfig:"ENV" default:"development"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
	DBDSN         string `envconfig:"DB_DSN"`
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`

	// Транспорт. Пустой токен отключает бота, пустой адрес - HTTP API
	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`
	HTTPAddr      string `envconfig:"HTTP_ADDR" default:":8080"`

	// Кэш месячных календарей, выключен без REDIS_ADDR
	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	RedisDB          int           `envconfig:"REDIS_DB" default:"0"`
	CalendarCacheTTL time.Duration `envconfig:"CALENDAR_CACHE_TTL" default:"10m"`

	// Календарь
	Timezone          string `envconfig:"TIMEZONE" default:"UTC"`
	MonthsAhead       int    `envconfig:"MONTHS_AHEAD" default:"2"`
	MaterializeCron   string `envconfig:"MATERIALIZE_CRON" default:"0 3 * * *"`
	MaterializeOnRead bool   `envconfig:"MATERIALIZE_ON_READ" default:"true"`
	RetainDays        int    `envconfig:"CALENDAR_RETAIN_DAYS" default:"0"` // 0 - прошедшие дни не удаляются

	// Базовая цена часа, если в правилах корта своя не задана
	DefaultHourlyRate decimal.Decimal `envconfig:"DEFAULT_HOURLY_RATE" default:"0"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required but not set")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.MonthsAhead < 1 {
		return fmt.Errorf("MONTHS_AHEAD must be positive, got %d", c.MonthsAhead)
	}

	if c.RetainDays < 0 {
		return fmt.Errorf("CALENDAR_RETAIN_DAYS must not be negative, got %d", c.RetainDays)
	}

	if c.DefaultHourlyRate.IsNegative() {
		return fmt.Errorf("DEFAULT_HOURLY_RATE must not be negative, got %s", c.DefaultHourlyRate)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.TelegramToken == "" && c.HTTPAddr == "" {
		return errors.New("nothing to run: set TELEGRAM_TOKEN or HTTP_ADDR")
	}

	return nil
}

// Location часовой пояс площадки
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}
