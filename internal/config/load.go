package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BINGO_DATABASE_HOST
const EnvPrefix = "BINGO"

// Load reads config/config.<env>.yml from path. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load(path, env string) (*Config, error) {
	_ = godotenv.Load()

	if env == "" {
		env = GetEnvironment()
	}

	v := viper.New()
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yml")
	v.AddConfigPath(path)

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.requestTimeout", "30s")
	v.SetDefault("store.driver", StoreDriverPostgres)
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "perlas-bingo")
	v.SetDefault("log.level", "info")
	v.SetDefault("redis.lockTTL", "30s")
	v.SetDefault("outbox.interval", "2s")
	v.SetDefault("outbox.batchSize", 100)
	v.SetDefault("outbox.maxRetries", 5)
	v.SetDefault("realtime.webhookTimeout", "10s")
	v.SetDefault("realtime.webhookRetries", 3)
	v.SetDefault("game.maxCardsPerUser", 3)
	v.SetDefault("game.drawLockTimeout", "5s")
	v.SetDefault("game.lockBackend", LockBackendLocal)
	v.SetDefault("funding.depositTTL", "24h")
	v.SetDefault("funding.minDeposit", "10")
	v.SetDefault("funding.maxDeposit", "5000")
	v.SetDefault("funding.minWithdrawal", "20")
	v.SetDefault("funding.commissionRate", "0.02")
	v.SetDefault("funding.minCommission", "1")
	v.SetDefault("funding.defaultDailyLimit", "0")
	v.SetDefault("funding.defaultMonthlyLimit", "0")
}

// Decimal parses a decimal config value, treating an empty string as zero
func Decimal(key, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("config %s: %w", key, err)
	}
	return d, nil
}
