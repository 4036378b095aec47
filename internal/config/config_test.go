package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SIGNING_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, StoreMemory, cfg.RefreshStore)
	assert.Equal(t, CredentialsFile, cfg.CredentialStore)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.LoginRateLimit)

	engineCfg := cfg.Engine()
	require.NoError(t, engineCfg.Validate())
	assert.Equal(t, []byte(testSecret), engineCfg.JWT.Secret)
	assert.True(t, engineCfg.Password.UpgradeOnLogin)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SIGNING_SECRET", testSecret)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "48h")
	t.Setenv("REFRESH_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOGIN_RATE_LIMIT", "yes")
	t.Setenv("METRICS_ENABLED", "off")
	t.Setenv("JWT_ISSUER", "deliveryauth")
	t.Setenv("PASSWORD_UPGRADE_ON_LOGIN", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, StoreRedis, cfg.RefreshStore)

	engineCfg := cfg.Engine()
	assert.Equal(t, 5*time.Minute, engineCfg.JWT.AccessTTL)
	assert.Equal(t, 48*time.Hour, engineCfg.Refresh.RefreshTTL)
	assert.True(t, engineCfg.Login.RateLimitEnabled)
	assert.False(t, engineCfg.Metrics.Enabled)
	assert.Equal(t, "deliveryauth", engineCfg.JWT.Issuer)
	assert.False(t, engineCfg.Password.UpgradeOnLogin)
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("JWT_SIGNING_SECRET", testSecret)
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{}},
		{name: "unknown store", env: map[string]string{"JWT_SIGNING_SECRET": testSecret, "REFRESH_STORE": "etcd"}},
		{name: "postgres without url", env: map[string]string{"JWT_SIGNING_SECRET": testSecret, "REFRESH_STORE": "postgres"}},
		{name: "sql credentials on memory", env: map[string]string{"JWT_SIGNING_SECRET": testSecret, "CREDENTIAL_STORE": "sql"}},
		{name: "unknown credentials", env: map[string]string{"JWT_SIGNING_SECRET": testSecret, "CREDENTIAL_STORE": "ldap"}},
		{name: "rate limit without redis", env: map[string]string{"JWT_SIGNING_SECRET": testSecret, "LOGIN_RATE_LIMIT": "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SIGNING_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSQLDSN(t *testing.T) {
	cfg := Config{RefreshStore: StoreSQLite, SQLitePath: "/tmp/x.db", DatabaseURL: "postgres://db"}
	assert.Equal(t, "/tmp/x.db", cfg.SQLDSN())
	assert.True(t, cfg.UsesSQL())

	cfg.RefreshStore = StorePostgres
	assert.Equal(t, "postgres://db", cfg.SQLDSN())
}
