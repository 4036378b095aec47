// Package config loads the deliveryauth server configuration from the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	deliveryAuth "github.com/MrEthical07/deliveryAuth"
)

// Refresh store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Credential sources.
const (
	CredentialsFile = "file"
	CredentialsSQL  = "sql"
)

// Config contains runtime configuration values.
type Config struct {
	HTTPAddr        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SigningSecret   []byte
	Issuer          string
	Audience        string

	RefreshStore  string
	RedisAddr     string
	RedisPassword string
	DatabaseURL   string
	SQLitePath    string
	PurgeInterval time.Duration

	CredentialStore string
	AccountsFile    string

	LogFormat string
	LogLevel  string

	LoginRateLimit   bool
	LoginMaxAttempts int
	LoginCooldown    time.Duration
	TrustProxy       bool

	MetricsEnabled         bool
	AuditLog               bool
	PasswordUpgradeOnLogin bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		SigningSecret:   []byte(os.Getenv("JWT_SIGNING_SECRET")),
		Issuer:          os.Getenv("JWT_ISSUER"),
		Audience:        os.Getenv("JWT_AUDIENCE"),

		RefreshStore:  strings.ToLower(getEnv("REFRESH_STORE", StoreMemory)),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getEnv("SQLITE_PATH", "deliveryauth.db"),
		PurgeInterval: getDuration("REFRESH_PURGE_INTERVAL", time.Hour),

		CredentialStore: strings.ToLower(getEnv("CREDENTIAL_STORE", CredentialsFile)),
		AccountsFile:    getEnv("ACCOUNTS_FILE", "accounts.json"),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		LoginRateLimit:   getBool("LOGIN_RATE_LIMIT", false),
		LoginMaxAttempts: getInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginCooldown:    getDuration("LOGIN_COOLDOWN", 15*time.Minute),
		TrustProxy:       getBool("TRUST_PROXY", false),

		MetricsEnabled:         getBool("METRICS_ENABLED", true),
		AuditLog:               getBool("AUDIT_LOG", false),
		PasswordUpgradeOnLogin: getBool("PASSWORD_UPGRADE_ON_LOGIN", true),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.SigningSecret) == 0 {
		return errors.New("JWT_SIGNING_SECRET is required")
	}

	switch c.RefreshStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis refresh store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres refresh store")
		}
	case StoreSQLite:
	default:
		return fmt.Errorf("unknown REFRESH_STORE %q", c.RefreshStore)
	}

	switch c.CredentialStore {
	case CredentialsFile:
		if c.AccountsFile == "" {
			return errors.New("ACCOUNTS_FILE is required for the file credential store")
		}
	case CredentialsSQL:
		if !c.UsesSQL() {
			return errors.New("CREDENTIAL_STORE=sql requires REFRESH_STORE postgres or sqlite")
		}
	default:
		return fmt.Errorf("unknown CREDENTIAL_STORE %q", c.CredentialStore)
	}

	if c.LoginRateLimit && c.RefreshStore != StoreRedis {
		return errors.New("LOGIN_RATE_LIMIT requires REFRESH_STORE=redis")
	}
	return nil
}

// UsesSQL reports whether refresh tokens live in a SQL database.
func (c Config) UsesSQL() bool {
	return c.RefreshStore == StorePostgres || c.RefreshStore == StoreSQLite
}

// SQLDSN returns the connection string for the SQL refresh store.
func (c Config) SQLDSN() string {
	if c.RefreshStore == StoreSQLite {
		return c.SQLitePath
	}
	return c.DatabaseURL
}

// Engine maps the server settings onto the library configuration.
func (c Config) Engine() deliveryAuth.Config {
	cfg := deliveryAuth.DefaultConfig()
	cfg.JWT.AccessTTL = c.AccessTokenTTL
	cfg.JWT.Secret = append([]byte(nil), c.SigningSecret...)
	cfg.JWT.Issuer = c.Issuer
	cfg.JWT.Audience = c.Audience
	cfg.Refresh.RefreshTTL = c.RefreshTokenTTL
	cfg.Login.RateLimitEnabled = c.LoginRateLimit
	cfg.Login.EnableIPThrottle = c.LoginRateLimit && c.TrustProxy
	cfg.Login.MaxAttempts = c.LoginMaxAttempts
	cfg.Login.Cooldown = c.LoginCooldown
	cfg.Metrics.Enabled = c.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.MetricsEnabled
	cfg.Audit.Enabled = c.AuditLog
	cfg.Password.UpgradeOnLogin = c.PasswordUpgradeOnLogin
	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}
