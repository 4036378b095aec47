package deliveryAuth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/MrEthical07/deliveryAuth/internal/audit"
	"github.com/MrEthical07/deliveryAuth/internal/rate"
	"github.com/MrEthical07/deliveryAuth/jwt"
	"github.com/MrEthical07/deliveryAuth/logging"
	"github.com/MrEthical07/deliveryAuth/password"
	"github.com/MrEthical07/deliveryAuth/refresh"
	"github.com/MrEthical07/deliveryAuth/refresh/redisstore"
)

// dummyPassword is hashed once at build time; unknown identifiers are verified
// against the result.
const dummyPassword = "deliveryauth-timing-equaliser"

// Builder assembles an Engine. A Builder can build exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	lookup       CredentialLookup
	hasher       PasswordHasher
	refreshStore RefreshStore
	auditSink    AuditSink
	logger       logging.Logger
	clock        func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client used for the default refresh store and the
// login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialLookup sets the account source. Required.
func (b *Builder) WithCredentialLookup(lookup CredentialLookup) *Builder {
	b.lookup = lookup
	return b
}

// WithPasswordHasher overrides the default argon2id/bcrypt hasher.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithRefreshStore overrides the default refresh store. Without it the engine
// uses Redis when a client was given and memory otherwise.
func (b *Builder) WithRefreshStore(store RefreshStore) *Builder {
	b.refreshStore = store
	return b
}

// WithAuditSink sets where audit events go when Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. Defaults to logging.Nop.
func (b *Builder) WithLogger(l logging.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock injects the time source. Defaults to time.Now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the authenticate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.lookup == nil {
		return nil, invalidConfig("credential lookup required")
	}
	if cfg.Login.RateLimitEnabled && b.redis == nil {
		return nil, invalidConfig("login rate limiting requires redis client")
	}

	// -------- TOKEN CODEC --------
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		Secret:        cloneBytes(cfg.JWT.Secret),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		KeyID:         cfg.JWT.KeyID,
	})
	if err != nil {
		return nil, invalidConfig(err.Error())
	}

	// -------- PASSWORD HASHER --------
	hasher := b.hasher
	if hasher == nil {
		multi, err := password.NewMulti(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, invalidConfig(err.Error())
		}
		hasher = multi
	}
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}

	// -------- REFRESH STORE --------
	store := b.refreshStore
	if store == nil {
		refreshCfg := refresh.Config{
			TTL:              cfg.Refresh.RefreshTTL,
			ExpiredRetention: cfg.Refresh.ExpiredRetention,
		}
		if b.redis != nil {
			store, err = redisstore.New(b.redis, redisstore.Config{
				Config: refreshCfg,
				Prefix: cfg.Refresh.RedisPrefix,
			})
		} else {
			store, err = refresh.NewMemoryStore(refreshCfg)
		}
		if err != nil {
			return nil, invalidConfig(err.Error())
		}
	}

	logger := b.logger
	if logger == nil {
		logger = logging.Nop{}
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		clock:        b.clock,
		jwtManager:   jm,
		refreshStore: store,
		lookup:       b.lookup,
		hasher:       hasher,
		logger:       logger,
		dummyHash:    dummyHash,
	}

	if cfg.Login.RateLimitEnabled {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.Login.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Login.MaxAttempts,
			LoginCooldownDuration: cfg.Login.Cooldown,
			Prefix:                cfg.Login.RedisPrefix,
		})
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Stamp:      stampAuditEvent,
		OnDrop: func(event AuditEvent) {
			logger.Debug(context.Background(), "audit event dropped", "event_type", event.EventType)
		},
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.flows = engine.flowDeps()

	b.built = true

	return engine, nil
}
