package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "peerpay", cfg.Database.DBName)
	assert.Equal(t, 10*time.Second, cfg.Gateways.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Settlement.ReconcileMaxAge)
	assert.Equal(t, 100, cfg.Settlement.SweepLimit)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9000
database:
  dbname: peerpay_test
gateways:
  timeout: 3s
  paywave:
    app_id: pw-app-1
settlement:
  reconcile_max_age: 30m
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "peerpay_test", cfg.Database.DBName)
	assert.Equal(t, 3*time.Second, cfg.Gateways.Timeout)
	assert.Equal(t, "pw-app-1", cfg.Gateways.PayWave.AppID)
	assert.Equal(t, 30*time.Minute, cfg.Settlement.ReconcileMaxAge)
	// untouched keys keep defaults
	assert.Equal(t, "localhost", cfg.Redis.Host)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PPS_DATABASE_HOST", "db.internal")
	t.Setenv("PPS_EVENTS_SINK_URL", "https://hooks.internal/settlements")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "https://hooks.internal/settlements", cfg.Events.SinkURL)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p",
		DBName: "peerpay", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@localhost:5432/peerpay?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}
