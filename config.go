package deliveryAuth

import (
	"time"
)

// Config is the engine configuration. Start from DefaultConfig and override.
type Config struct {
	JWT      JWTConfig
	Refresh  RefreshConfig
	Password PasswordConfig
	Login    LoginConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures access-token minting and decoding.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	Secret        []byte // hs256, at least 32 bytes
	PrivateKey    []byte // ed25519, raw or PEM
	PublicKey     []byte // ed25519, raw or PEM
	Issuer        string
	Audience      string
	KeyID         string
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig configures refresh-token lifetime. It is applied to the store
// the Builder creates; a store passed through WithRefreshStore keeps its own.
type RefreshConfig struct {
	RefreshTTL       time.Duration
	ExpiredRetention time.Duration
	RedisPrefix      string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id cost parameters for the default hasher.
// UpgradeOnLogin re-hashes bcrypt and weaker argon2id hashes after a
// successful login when the hasher and the credential store support it.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
LOGIN THROTTLE CONFIG
====================================
*/

// LoginConfig configures the optional Redis login throttle.
type LoginConfig struct {
	RateLimitEnabled bool
	EnableIPThrottle bool
	MaxAttempts      int
	Cooldown         time.Duration
	RedisPrefix      string
}

/*
====================================
AUDIT & METRICS CONFIG
====================================
*/

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns 15 minute access tokens, 7 day refresh tokens and
// argon2id at 64 MiB. JWT.Secret must still be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "hs256",
		},
		Refresh: RefreshConfig{
			RefreshTTL:       7 * 24 * time.Hour,
			ExpiredRetention: 24 * time.Hour,
			RedisPrefix:      "da:",
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Login: LoginConfig{
			RateLimitEnabled: false,
			EnableIPThrottle: false,
			MaxAttempts:      5,
			Cooldown:         15 * time.Minute,
			RedisPrefix:      "da:",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return invalidConfig("JWT AccessTTL must be > 0")
	}
	if c.JWT.AccessTTL%time.Second != 0 {
		return invalidConfig("JWT AccessTTL must be a whole number of seconds")
	}

	switch c.JWT.SigningMethod {
	case "", "hs256":
		if len(c.JWT.Secret) < 32 {
			return invalidConfig("hs256 requires a Secret of at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return invalidConfig("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return invalidConfig("ed25519 requires PublicKey")
		}
	default:
		return invalidConfig("unsupported JWT signing method")
	}

	// Refresh
	if c.Refresh.RefreshTTL <= 0 {
		return invalidConfig("Refresh RefreshTTL must be > 0")
	}
	if c.Refresh.ExpiredRetention < 0 {
		return invalidConfig("Refresh ExpiredRetention must be >= 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return invalidConfig("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return invalidConfig("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return invalidConfig("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return invalidConfig("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return invalidConfig("Password KeyLength must be >= 16")
	}

	// Login throttle
	if c.Login.RateLimitEnabled {
		if c.Login.MaxAttempts <= 0 {
			return invalidConfig("Login MaxAttempts must be > 0")
		}
		if c.Login.Cooldown <= 0 {
			return invalidConfig("Login Cooldown must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalidConfig("Audit BufferSize must be > 0")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalidConfig("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
