package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOAN_DAYS", "")
	t.Setenv("FINE_PER_DAY", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 14, cfg.LoanDays)
	assert.True(t, cfg.FinePerDay.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("LOAN_DAYS", "21")
	t.Setenv("FINE_PER_DAY", "1.25")
	t.Setenv("OVERDUE_SCAN_INTERVAL", "30m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RESET_DB", "true")
	t.Setenv("PUBLIC_BASE_URL", "https://pedbook.example/")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 21, cfg.LoanDays)
	assert.Equal(t, "1.25", cfg.FinePerDay.StringFixed(2))
	assert.Equal(t, 30*time.Minute, cfg.OverdueScanInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.ResetDB)
	assert.Equal(t, "https://pedbook.example", cfg.PublicBaseURL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("LOAN_DAYS", "two weeks")
	t.Setenv("FINE_PER_DAY", "cheap")
	t.Setenv("OVERDUE_SCAN_INTERVAL", "daily")

	cfg := Load()

	assert.Equal(t, 14, cfg.LoanDays)
	assert.Equal(t, "0.50", cfg.FinePerDay.StringFixed(2))
	assert.Equal(t, 24*time.Hour, cfg.OverdueScanInterval)
}
