package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Environment:     "development",
		DBDSN:           "postgres://localhost/court",
		StorageDriver:   StorageDriverPostgres,
		HTTPAddr:        ":8080",
		Timezone:        "Europe/Moscow",
		MonthsAhead:     2,
		MaterializeCron: "0 3 * * *",
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/court")
	t.Setenv("DEFAULT_HOURLY_RATE", "1500.50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 2, cfg.MonthsAhead)
	assert.Equal(t, 10*time.Minute, cfg.CalendarCacheTTL)
	assert.True(t, cfg.MaterializeOnRead)
	assert.Zero(t, cfg.RetainDays)
	assert.True(t, decimal.RequireFromString("1500.5").Equal(cfg.DefaultHourlyRate))
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	noDSN := validConfig()
	noDSN.DBDSN = ""
	assert.Error(t, noDSN.Validate())

	memory := validConfig()
	memory.DBDSN = ""
	memory.StorageDriver = StorageDriverMemory
	assert.NoError(t, memory.Validate())

	unknown := validConfig()
	unknown.StorageDriver = "mongo"
	assert.Error(t, unknown.Validate())

	badTZ := validConfig()
	badTZ.Timezone = "Mars/Olympus"
	assert.Error(t, badTZ.Validate())

	horizon := validConfig()
	horizon.MonthsAhead = 0
	assert.Error(t, horizon.Validate())

	retain := validConfig()
	retain.RetainDays = -1
	assert.Error(t, retain.Validate())

	negative := validConfig()
	negative.DefaultHourlyRate = decimal.NewFromInt(-1)
	assert.Error(t, negative.Validate())

	idle := validConfig()
	idle.HTTPAddr = ""
	assert.Error(t, idle.Validate())
}
