package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/hotel")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "dev")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsProduction)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 10, cfg.DB.MaxConns)
	assert.Zero(t, cfg.DB.MinConns)
	assert.Equal(t, time.Hour, cfg.DB.MaxConnLifetime)
	assert.Equal(t, time.Hour, cfg.Availability.RefreshInterval)
	assert.Equal(t, 365, cfg.Availability.RefreshDays)
	assert.Equal(t, "EXCLUDING", cfg.Billing.GSTMode)
	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, cfg.Billing.WeekendDays)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "", cfg.SMTP.Host)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("AVAILABILITY_REFRESH_INTERVAL", "0s")
	t.Setenv("WEEKEND_DAYS", "sat, sun")
	t.Setenv("GST_MODE", "including")
	t.Setenv("SMTP_USER", "front@hotel.test")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("DB_MAX_CONN_LIFETIME", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Zero(t, cfg.Availability.RefreshInterval)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, cfg.Billing.WeekendDays)
	assert.Equal(t, "INCLUDING", cfg.Billing.GSTMode)
	assert.Equal(t, "front@hotel.test", cfg.SMTP.From)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 15*time.Minute, cfg.DB.MaxConnLifetime)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing dsn", env: map[string]string{"DB_DSN": ""}},
		{name: "missing jwt secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "production without origins", env: map[string]string{"APP_ENV": "prod", "PROD_ORIGINS": " "}},
		{name: "bad bcrypt cost", env: map[string]string{"BCRYPT_COST": "high"}},
		{name: "bad ttl", env: map[string]string{"JWT_ACCESS_TOKEN_TTL": "soon"}},
		{name: "bad weekday", env: map[string]string{"WEEKEND_DAYS": "FRI,FUNDAY"}},
		{name: "bad pool size", env: map[string]string{"DB_MAX_CONNS": "lots"}},
		{name: "bad metrics flag", env: map[string]string{"METRICS_ENABLED": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
