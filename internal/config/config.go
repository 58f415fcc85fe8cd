package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig описывает настройки сервиса. Источники по приоритету: переменные окружения,
// .env, config.yaml, значения по умолчанию.
type AppConfig struct {
	Env      string `mapstructure:"ENV"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	GRPCAddr string `mapstructure:"GRPC_ADDR"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	DefaultTimezone       string        `mapstructure:"DEFAULT_TIMEZONE"`
	DefaultServiceMinutes int           `mapstructure:"DEFAULT_SERVICE_MINUTES"`
	MinLeadMinutes        int           `mapstructure:"MIN_LEAD_MINUTES"`
	FallbackSlotMinutes   int           `mapstructure:"FALLBACK_SLOT_MINUTES"`
	SlotCacheTTL          time.Duration `mapstructure:"SLOT_CACHE_TTL"`

	// Пустой адрес: кэш в памяти процесса.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`

	ReminderCron   string        `mapstructure:"REMINDER_CRON"`
	ReminderWindow time.Duration `mapstructure:"REMINDER_WINDOW"`

	TwilioAccountSID     string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber    string `mapstructure:"TWILIO_PHONE_NUMBER"`
	TwilioWhatsappNumber string `mapstructure:"TWILIO_WHATSAPP_NUMBER"`

	RateLimitPerMin int      `mapstructure:"RATE_LIMIT_PER_MIN"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// Location: зона по умолчанию для компаний без своей.
func (c *AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.DefaultTimezone)
}

var appDefaults = map[string]any{
	"ENV":                     "development",
	"HTTP_ADDR":               ":8080",
	"GRPC_ADDR":               ":50051",
	"JWT_SECRET":              "",
	"DEFAULT_TIMEZONE":        "America/Sao_Paulo",
	"DEFAULT_SERVICE_MINUTES": 60,
	"MIN_LEAD_MINUTES":        0,
	"FALLBACK_SLOT_MINUTES":   30,
	"SLOT_CACHE_TTL":          "10m",
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"REDIS_CACHE_DB":          0,
	"REMINDER_CRON":           "@every 15m",
	"REMINDER_WINDOW":         "24h",
	"TWILIO_ACCOUNT_SID":      "",
	"TWILIO_AUTH_TOKEN":       "",
	"TWILIO_PHONE_NUMBER":     "",
	"TWILIO_WHATSAPP_NUMBER":  "",
	"RATE_LIMIT_PER_MIN":      200,
	"CORS_ORIGINS":            "*",
}

// newViper читает .env (если есть) и готовит viper с дефолтами.
func newViper(defaults map[string]any) *viper.Viper {
	// .env не обязателен: в контейнере всё приходит через окружение.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

func Load() (*AppConfig, error) {
	v := newViper(appDefaults)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// минимальная валидация
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", cfg.DefaultTimezone, err)
	}
	if cfg.DefaultServiceMinutes <= 0 {
		return nil, fmt.Errorf("DEFAULT_SERVICE_MINUTES must be positive")
	}
	if cfg.MinLeadMinutes < 0 {
		return nil, fmt.Errorf("MIN_LEAD_MINUTES must not be negative")
	}
	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}
	return &cfg, nil
}
