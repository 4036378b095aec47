package deliveryAuth

import (
	"errors"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with secret",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "missing secret",
			mutate: func(c *Config) {
				c.JWT.Secret = nil
			},
			wantValid: false,
		},
		{
			name: "short secret",
			mutate: func(c *Config) {
				c.JWT.Secret = []byte("too-short")
			},
			wantValid: false,
		},
		{
			name: "empty signing method means hs256",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = ""
			},
			wantValid: true,
		},
		{
			name: "jwt signing invalid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "rs256"
			},
			wantValid: false,
		},
		{
			name: "ed25519 without keys",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "ed25519"
			},
			wantValid: false,
		},
		{
			name: "zero access ttl",
			mutate: func(c *Config) {
				c.JWT.AccessTTL = 0
			},
			wantValid: false,
		},
		{
			name: "fractional access ttl",
			mutate: func(c *Config) {
				c.JWT.AccessTTL = 1500 * time.Millisecond
			},
			wantValid: false,
		},
		{
			name: "zero refresh ttl",
			mutate: func(c *Config) {
				c.Refresh.RefreshTTL = 0
			},
			wantValid: false,
		},
		{
			name: "negative retention",
			mutate: func(c *Config) {
				c.Refresh.ExpiredRetention = -time.Second
			},
			wantValid: false,
		},
		{
			name: "weak argon memory",
			mutate: func(c *Config) {
				c.Password.Memory = 1024
			},
			wantValid: false,
		},
		{
			name: "rate limit without attempts",
			mutate: func(c *Config) {
				c.Login.RateLimitEnabled = true
				c.Login.MaxAttempts = 0
			},
			wantValid: false,
		},
		{
			name: "audit without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "histograms without metrics",
			mutate: func(c *Config) {
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
			}
		})
	}
}

func TestCloneConfigCopiesKeyMaterial(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)
	clone.JWT.Secret[0] = 'X'
	if cfg.JWT.Secret[0] == 'X' {
		t.Fatal("cloneConfig must not share secret bytes")
	}
}
