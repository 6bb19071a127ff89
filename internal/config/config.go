package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"log"`
	Business  BusinessConfig  `mapstructure:"business"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Tips      TipsConfig      `mapstructure:"tips"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Health    HealthConfig    `mapstructure:"health"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SchedulerConfig struct {
	OverdueSpec    string        `mapstructure:"overdue_spec"`
	ReminderSpec   string        `mapstructure:"reminder_spec"`
	ReminderWindow time.Duration `mapstructure:"reminder_window"`
	Timezone       string        `mapstructure:"timezone"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type BusinessConfig struct {
	MinLoanAmount    string `mapstructure:"min_loan_amount"`
	MaxLoanAmount    string `mapstructure:"max_loan_amount"`
	MinLoanWeeks     int    `mapstructure:"min_loan_weeks"`
	MaxLoanWeeks     int    `mapstructure:"max_loan_weeks"`
	FirstPaymentDays int    `mapstructure:"first_payment_days"`
	Currency         string `mapstructure:"currency"`
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	Issuer       string        `mapstructure:"issuer"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type TipsConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxWords int           `mapstructure:"max_words"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type CacheConfig struct {
	LoanListTTL    time.Duration `mapstructure:"loan_list_ttl"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("scheduler.overdue_spec", "0 5 0 * * *")
	v.SetDefault("scheduler.reminder_spec", "0 0 9 * * *")
	v.SetDefault("scheduler.reminder_window", "72h")
	v.SetDefault("scheduler.timezone", "Africa/Lusaka")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("business.min_loan_amount", "200")
	v.SetDefault("business.max_loan_amount", "50000")
	v.SetDefault("business.min_loan_weeks", 1)
	v.SetDefault("business.max_loan_weeks", 16)
	v.SetDefault("business.first_payment_days", 7)
	v.SetDefault("business.currency", "ZMW")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "fiducialend")
	v.SetDefault("auth.session_ttl", "120h")
	v.SetDefault("auth.cookie_name", "session")
	v.SetDefault("auth.cookie_secure", true)

	v.SetDefault("tips.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("tips.model", "gemini-2.0-flash")
	v.SetDefault("tips.api_key", "")
	v.SetDefault("tips.timeout", "20s")
	v.SetDefault("tips.max_words", 200)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "fiducialend.loans")

	v.SetDefault("cache.loan_list_ttl", "5m")
	v.SetDefault("cache.idempotency_ttl", "24h")

	v.SetDefault("health.timeout", "5s")
}

// Load reads configuration from environment variables and an optional .env file.
// Keys map to environment variables by upper-casing and replacing dots with
// underscores, e.g. database.url -> DATABASE_URL.
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()
	_ = godotenv.Load("deployments/.env")

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", c.Database.Driver)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	minAmount, err := decimal.NewFromString(c.Business.MinLoanAmount)
	if err != nil {
		return fmt.Errorf("BUSINESS_MIN_LOAN_AMOUNT must be a valid decimal: %w", err)
	}
	maxAmount, err := decimal.NewFromString(c.Business.MaxLoanAmount)
	if err != nil {
		return fmt.Errorf("BUSINESS_MAX_LOAN_AMOUNT must be a valid decimal: %w", err)
	}
	if !minAmount.IsPositive() || maxAmount.LessThan(minAmount) {
		return fmt.Errorf("loan amount bounds must satisfy 0 < min <= max")
	}

	if c.Business.MinLoanWeeks < 1 || c.Business.MaxLoanWeeks < c.Business.MinLoanWeeks {
		return fmt.Errorf("loan week bounds must satisfy 1 <= min <= max")
	}

	if c.Business.FirstPaymentDays <= 0 {
		return fmt.Errorf("BUSINESS_FIRST_PAYMENT_DAYS must be greater than 0")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// DSN returns the data source name handed to the sql driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite3" {
		return strings.TrimPrefix(d.URL, "sqlite3://")
	}
	return d.URL
}

// MigrationURL returns the database URL in the form golang-migrate expects.
func (d DatabaseConfig) MigrationURL() string {
	if d.Driver == "sqlite3" && !strings.HasPrefix(d.URL, "sqlite3://") {
		return "sqlite3://" + d.URL
	}
	return d.URL
}

// GetMinLoanAmount returns the smallest loan a borrower may request.
func (c *Config) GetMinLoanAmount() decimal.Decimal {
	amount, _ := decimal.NewFromString(c.Business.MinLoanAmount)
	return amount
}

// GetMaxLoanAmount returns the largest loan a borrower may request.
func (c *Config) GetMaxLoanAmount() decimal.Decimal {
	amount, _ := decimal.NewFromString(c.Business.MaxLoanAmount)
	return amount
}

// GetSchedulerLocation returns the scheduler time zone.
func (c *Config) GetSchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
