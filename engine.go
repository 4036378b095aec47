package deliveryAuth

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/deliveryAuth/internal/audit"
	"github.com/MrEthical07/deliveryAuth/internal/flows"
	"github.com/MrEthical07/deliveryAuth/internal/rate"
	"github.com/MrEthical07/deliveryAuth/jwt"
	"github.com/MrEthical07/deliveryAuth/logging"
	"github.com/MrEthical07/deliveryAuth/refresh"
)

// Engine issues and validates delivery-platform credentials. It is safe for
// concurrent use once returned by Builder.Build.
type Engine struct {
	config       Config
	clock        func() time.Time
	jwtManager   *jwt.Manager
	refreshStore refresh.Store
	lookup       CredentialLookup
	hasher       PasswordHasher
	rateLimiter  *rate.Limiter
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       logging.Logger
	dummyHash    string
	flows        flows.Deps
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Lint returns warnings for the configuration the engine was built with.
func (e *Engine) Lint() LintResult {
	if e == nil {
		return nil
	}
	cfg := cloneConfig(e.config)
	return cfg.Lint()
}

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies loginIdentifier and password and issues a token pair.
//
// Unknown identifiers and wrong passwords both return ErrInvalidCredentials.
// Inactive accounts return ErrAccountInactive regardless of the password.
// Nothing is persisted on failure.
func (e *Engine) Login(ctx context.Context, loginIdentifier, password string) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}
	pair, err := flows.RunLogin(ctx, loginIdentifier, password, e.flows.Login)
	if err != nil {
		return TokenPair{}, err
	}
	return tokenPairFromFlow(pair), nil
}

// Refresh consumes refreshToken and issues a new pair for the owning account.
//
// Store failures surface as ErrUnknownToken, ErrTokenRevoked or ErrTokenExpired.
// If the account is missing or inactive the call returns ErrAccountInactive,
// the presented token stays consumed and every other token of the account is
// revoked.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	result := flows.RunRefresh(ctx, refreshToken, e.flows.Refresh)
	switch result.Failure {
	case flows.RefreshFailureNone:
		return tokenPairFromFlow(result.Tokens), nil
	case flows.RefreshFailureAccountInactive:
		return TokenPair{}, ErrAccountInactive
	case flows.RefreshFailureRotate, flows.RefreshFailureLookup:
		return TokenPair{}, storeUnavailable(result.Err)
	default:
		return TokenPair{}, result.Err
	}
}

// Logout revokes one refresh token. Unknown or already revoked tokens are not
// an error.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return flows.RunLogout(ctx, refreshToken, e.flows.Logout)
}

// LogoutAll revokes every refresh token of accountID. Access tokens already
// issued stay valid until they expire.
func (e *Engine) LogoutAll(ctx context.Context, accountID int64) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return flows.RunLogoutAll(ctx, accountID, e.flows.Logout)
}

// Authenticate resolves an Authorization header value to an identity. It never
// returns an error: a missing, malformed, expired or stale credential yields
// false and the request continues unauthenticated.
func (e *Engine) Authenticate(ctx context.Context, authorizationHeader string) (Identity, bool) {
	if e == nil {
		return Identity{}, false
	}
	result := flows.RunAuthenticate(ctx, authorizationHeader, e.flows.Authenticate)
	if result.Outcome != flows.AuthenticateOK {
		return Identity{}, false
	}
	return Identity{
		AccountID:       result.Identity.AccountID,
		LoginIdentifier: result.Identity.LoginIdentifier,
		Role:            result.Identity.Role,
	}, true
}

// HashPassword returns the encoded hash for plaintext using the engine's
// hasher, for provisioning accounts.
func (e *Engine) HashPassword(plaintext string) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}
	return e.hasher.Hash(plaintext)
}

// PurgeExpired deletes refresh records past expiry and retention. Stores that
// expire records on their own report zero.
func (e *Engine) PurgeExpired(ctx context.Context) (int64, error) {
	if e == nil || e.refreshStore == nil {
		return 0, ErrEngineNotReady
	}
	p, ok := e.refreshStore.(refresh.Purger)
	if !ok {
		return 0, nil
	}
	return p.PurgeExpired(ctx, e.now())
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (e *Engine) RunPurger(ctx context.Context, interval time.Duration) {
	if e == nil || interval <= 0 {
		return
	}
	if _, ok := e.refreshStore.(refresh.Purger); !ok {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := e.PurgeExpired(ctx)
			if err != nil {
				e.logger.Warn(ctx, "refresh purge failed", "error", err)
				continue
			}
			if n > 0 {
				e.logger.Info(ctx, "purged expired refresh tokens", "count", n)
			}
		}
	}
}

func tokenPairFromFlow(p flows.TokenPair) TokenPair {
	return TokenPair{
		AccessToken:      p.AccessToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshToken:     p.RefreshToken,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}
