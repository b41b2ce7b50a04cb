package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Провайдеры платежей
const (
	ProviderStripe = "stripe"
	ProviderPayPal = "paypal"
)

var (
	// ErrReadConfig возвращается, когда файл конфигурации не удалось прочитать
	ErrReadConfig = errors.New("config: failed to read config file")

	// ErrInvalidConfig возвращается, когда конфигурация не прошла валидацию
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config конфигурация сервиса
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Logs         LogsConfig         `toml:"logs"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Consultation ConsultationConfig `toml:"consultation"`
	Payments     PaymentsConfig     `toml:"payments"`
	Redis        RedisConfig        `toml:"redis"`
	RabbitMQ     RabbitMQConfig     `toml:"rabbitmq"`
	Expiry       ExpiryConfig       `toml:"expiry"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к Postgres
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
	MigrationsPath  string `toml:"migrations_path"`
}

// DSN возвращает строку подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL возвращает строку подключения в формате URL (для golang-migrate)
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// ConsultationConfig параметры консультации
type ConsultationConfig struct {
	DurationMinutes int    `toml:"duration_minutes"`
	PriceCents      int64  `toml:"price_cents"`
	Currency        string `toml:"currency"`
	Timezone        string `toml:"timezone"`
}

// Location возвращает часовой пояс окон доступности
func (c ConsultationConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// PaymentsConfig настройки платежного шлюза
type PaymentsConfig struct {
	Provider       string       `toml:"provider"`
	TimeoutSeconds int          `toml:"timeout_seconds"`
	Stripe         StripeConfig `toml:"stripe"`
	PayPal         PayPalConfig `toml:"paypal"`
}

// Timeout возвращает таймаут обращения к шлюзу
func (c PaymentsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StripeConfig ключи Stripe
type StripeConfig struct {
	SecretKey     string `toml:"secret_key"`
	WebhookSecret string `toml:"webhook_secret"`
}

// PayPalConfig настройки PayPal REST API
type PayPalConfig struct {
	BaseURL      string `toml:"base_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	WebhookID    string `toml:"webhook_id"`
	ReturnURL    string `toml:"return_url"`
	CancelURL    string `toml:"cancel_url"`
}

// RedisConfig настройки Redis (дедупликация webhook событий)
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLMinutes int    `toml:"ttl_minutes"`
}

// TTL возвращает время хранения id обработанного события
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// RabbitMQConfig настройки публикации событий жизненного цикла
type RabbitMQConfig struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

// ExpiryConfig настройки автоматической отмены неоплаченных бронирований
type ExpiryConfig struct {
	Enabled                       bool `toml:"enabled"`
	AwaitingPaymentTimeoutMinutes int  `toml:"awaiting_payment_timeout_minutes"`
	SweepIntervalSeconds          int  `toml:"sweep_interval_seconds"`
}

// AwaitingPaymentTimeout возвращает максимальное время ожидания оплаты
func (c ExpiryConfig) AwaitingPaymentTimeout() time.Duration {
	return time.Duration(c.AwaitingPaymentTimeoutMinutes) * time.Minute
}

// SweepInterval возвращает период запуска отмены
func (c ExpiryConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// Load читает конфигурацию из TOML файла, применяет значения по умолчанию,
// переменные окружения и валидирует результат
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			MigrationsPath:  "migrations",
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "consultation-service",
		},
		Consultation: ConsultationConfig{
			DurationMinutes: 45,
			Currency:        "eur",
			Timezone:        "UTC",
		},
		Payments: PaymentsConfig{
			Provider:       ProviderStripe,
			TimeoutSeconds: 10,
			PayPal: PayPalConfig{
				BaseURL: "https://api-m.sandbox.paypal.com",
			},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			TTLMinutes: 24 * 60,
		},
		RabbitMQ: RabbitMQConfig{
			Exchange: "consultations",
		},
		Expiry: ExpiryConfig{
			Enabled:                       true,
			AwaitingPaymentTimeoutMinutes: 60,
			SweepIntervalSeconds:          60,
		},
	}
}

// applyEnv перекрывает секреты значениями из окружения
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DB_PASSWORD":           &c.Database.Password,
		"STRIPE_SECRET_KEY":     &c.Payments.Stripe.SecretKey,
		"STRIPE_WEBHOOK_SECRET": &c.Payments.Stripe.WebhookSecret,
		"PAYPAL_CLIENT_SECRET":  &c.Payments.PayPal.ClientSecret,
	}
	for env, target := range overrides {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*target = v
		}
	}
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	}

	if c.Consultation.DurationMinutes <= 0 || c.Consultation.DurationMinutes > 24*60 {
		return fmt.Errorf("%w: consultation.duration_minutes must be in 1..1440", ErrInvalidConfig)
	}

	if c.Consultation.PriceCents < 0 {
		return fmt.Errorf("%w: consultation.price_cents must not be negative", ErrInvalidConfig)
	}

	if len(c.Consultation.Currency) != 3 {
		return fmt.Errorf("%w: consultation.currency must be an ISO 4217 code", ErrInvalidConfig)
	}

	if _, err := c.Consultation.Location(); err != nil {
		return fmt.Errorf("%w: consultation.timezone: %v", ErrInvalidConfig, err)
	}

	switch c.Payments.Provider {
	case ProviderStripe, ProviderPayPal:
	default:
		return fmt.Errorf("%w: unknown payments.provider %q", ErrInvalidConfig, c.Payments.Provider)
	}

	if c.Payments.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: payments.timeout_seconds must be positive", ErrInvalidConfig)
	}

	if c.Expiry.Enabled {
		if c.Expiry.AwaitingPaymentTimeoutMinutes <= 0 {
			return fmt.Errorf("%w: expiry.awaiting_payment_timeout_minutes must be positive", ErrInvalidConfig)
		}
		if c.Expiry.SweepIntervalSeconds <= 0 {
			return fmt.Errorf("%w: expiry.sweep_interval_seconds must be positive", ErrInvalidConfig)
		}
	}

	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return fmt.Errorf("%w: rabbitmq.url is required when rabbitmq is enabled", ErrInvalidConfig)
	}

	return nil
}
