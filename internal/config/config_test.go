package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileDefaultsAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yml := []byte("database:\n  host: db\n  port: 5432\nfunding:\n  minDeposit: \"15\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.test.yml"), yml, 0o600))
	t.Setenv("BINGO_DATABASE_HOST", "override")

	cfg, err := Load(dir, "test")
	require.NoError(t, err)

	assert.Equal(t, "override", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "15", cfg.Funding.MinDeposit)
	assert.Equal(t, 24*time.Hour, cfg.Funding.DepositTTL)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Game.MaxCardsPerUser)
	assert.Equal(t, ":8080", cfg.GetServerAddress())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "nope")
	assert.Error(t, err)
}

func TestDecimal(t *testing.T) {
	d, err := Decimal("x", "")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = Decimal("x", "0.02")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("0.02")))

	_, err = Decimal("x", "two")
	assert.Error(t, err)
}
