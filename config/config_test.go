package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":        "postgres://localhost/betting",
		"JWT_SECRET_KEY":      "secret",
		"ADMIN_PASSWORD_HASH": "$2a$14$hash",
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := fromEnv(envOf(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.ExportEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	env := baseEnv()
	env["DATABASE_DRIVER"] = "sqlite3"
	env["SERVER_PORT"] = "9090"
	env["ADMIN_USERNAME"] = "referee"
	env["LOG_LEVEL"] = "debug"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example, https://b.example,"
	env["R2_ACCOUNT_ID"] = "acc"
	env["R2_ACCESS_KEY_ID"] = "key"
	env["R2_SECRET_ACCESS_KEY"] = "secret"
	env["R2_BUCKET_NAME"] = "bucket"
	env["R2_PUBLIC_BASE_URL"] = "https://cdn.example"

	cfg, err := fromEnv(envOf(env))
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "referee", cfg.AdminUsername)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.ExportEnabled())
	assert.Equal(t, "bucket", cfg.R2.BucketName)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "missing database url", key: "DATABASE_URL", val: ""},
		{name: "missing jwt secret", key: "JWT_SECRET_KEY", val: ""},
		{name: "missing admin hash", key: "ADMIN_PASSWORD_HASH", val: ""},
		{name: "unknown driver", key: "DATABASE_DRIVER", val: "mysql"},
		{name: "bad port", key: "SERVER_PORT", val: "eighty"},
		{name: "port out of range", key: "SERVER_PORT", val: "70000"},
		{name: "bad log level", key: "LOG_LEVEL", val: "loud"},
		{name: "partial r2", key: "R2_BUCKET_NAME", val: "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			env[tt.key] = tt.val
			_, err := fromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}
