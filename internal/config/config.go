package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Game     GameConfig     `mapstructure:"game"`
	Funding  FundingConfig  `mapstructure:"funding"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RedisConfig holds the connection used by the distributed draw lock
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lockTTL"`
}

// OutboxConfig tunes event delivery
type OutboxConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	BatchSize  int           `mapstructure:"batchSize"`
	MaxRetries int           `mapstructure:"maxRetries"`
}

// RealtimeConfig configures the websocket hub and the optional webhook
type RealtimeConfig struct {
	WebhookURL     string        `mapstructure:"webhookUrl"`
	WebhookAPIKey  string        `mapstructure:"webhookApiKey"`
	WebhookTimeout time.Duration `mapstructure:"webhookTimeout"`
	WebhookRetries int           `mapstructure:"webhookRetries"`
}

// Lock backends
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// GameConfig holds engine limits
type GameConfig struct {
	MaxCardsPerUser int           `mapstructure:"maxCardsPerUser"`
	DrawLockTimeout time.Duration `mapstructure:"drawLockTimeout"`
	LockBackend     string        `mapstructure:"lockBackend"`
}

// FundingConfig holds deposit and withdrawal rules. Amounts are decimal strings.
type FundingConfig struct {
	DepositTTL          time.Duration `mapstructure:"depositTTL"`
	MinDeposit          string        `mapstructure:"minDeposit"`
	MaxDeposit          string        `mapstructure:"maxDeposit"`
	MinWithdrawal       string        `mapstructure:"minWithdrawal"`
	CommissionRate      string        `mapstructure:"commissionRate"`
	MinCommission       string        `mapstructure:"minCommission"`
	DefaultDailyLimit   string        `mapstructure:"defaultDailyLimit"`
	DefaultMonthlyLimit string        `mapstructure:"defaultMonthlyLimit"`
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetMigrateURL returns the database URL in the form golang-migrate expects
func (c *Config) GetMigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the server address for binding
func (c *Config) GetServerAddress() string {
	port := c.Server.Port
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("%s:%s", c.Server.Host, port)
}

// GetEnvironment returns the current environment
func GetEnvironment() string {
	if env := os.Getenv("BINGO_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "development"
}
