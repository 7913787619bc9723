package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"JANITOR_BACKEND", "JANITOR_LOBBY_TIMEOUT", "JANITOR_CONTINUE_ON_ERROR",
		"JANITOR_LOOKUP_CONCURRENCY", "JANITOR_SCHEDULE", "JANITOR_RUN_TIMEOUT",
		"JANITOR_RUN_ON_START", "REDIS_DB", "DATABASE_URL",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, 24*time.Hour, cfg.LobbyTimeout)
	assert.False(t, cfg.ContinueOnError)
	assert.Equal(t, 1, cfg.LookupConcurrency)
	assert.Equal(t, "@every 1h", cfg.Schedule)
	assert.Zero(t, cfg.RunTimeout)
	assert.True(t, cfg.RunOnStart)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JANITOR_BACKEND", "Redis")
	t.Setenv("JANITOR_LOBBY_TIMEOUT", "90m")
	t.Setenv("JANITOR_CONTINUE_ON_ERROR", "true")
	t.Setenv("JANITOR_LOOKUP_CONCURRENCY", "8")
	t.Setenv("JANITOR_RUN_TIMEOUT", "never")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, 90*time.Minute, cfg.LobbyTimeout)
	assert.True(t, cfg.ContinueOnError)
	assert.Equal(t, 8, cfg.LookupConcurrency)
	assert.Zero(t, cfg.RunTimeout)
	assert.Equal(t, 0, cfg.Redis.DB)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{Backend: BackendMemory, LobbyTimeout: time.Hour, LookupConcurrency: 1}
	require.NoError(t, base.Validate())

	bad := base
	bad.Backend = "firestore"
	assert.Error(t, bad.Validate())

	bad = base
	bad.LobbyTimeout = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.LookupConcurrency = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Backend = BackendPostgres
	assert.Error(t, bad.Validate())
	bad.Postgres.URL = "postgres://localhost/cambia"
	assert.NoError(t, bad.Validate())
}

func TestConnString(t *testing.T) {
	p := Postgres{User: "u", Password: "p", Host: "db", Port: "5433", Database: "cambia"}
	assert.Equal(t, "postgres://u:p@db:5433/cambia", p.ConnString())

	p.URL = "postgres://other"
	assert.Equal(t, "postgres://other", p.ConnString())
}
