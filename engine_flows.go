package deliveryAuth

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/deliveryAuth/credentials"
	internalflows "github.com/MrEthical07/deliveryAuth/internal/flows"
	"github.com/MrEthical07/deliveryAuth/internal/rate"
	"github.com/MrEthical07/deliveryAuth/password"
	"github.com/MrEthical07/deliveryAuth/permission"
	"github.com/MrEthical07/deliveryAuth/refresh"
)

func (e *Engine) flowDeps() internalflows.Deps {
	return internalflows.Deps{
		Login:        e.loginFlowDeps(),
		Refresh:      e.refreshFlowDeps(),
		Logout:       e.logoutFlowDeps(),
		Authenticate: e.authenticateFlowDeps(),
	}
}

func (e *Engine) issueFlowDeps() internalflows.IssueDeps {
	return internalflows.IssueDeps{
		MintAccess: func(subject string, role permission.Role, now time.Time) (string, time.Time, error) {
			return e.jwtManager.Mint(subject, role, now)
		},
		IssueRefresh: func(ctx context.Context, accountID int64, now time.Time) (refresh.Issued, error) {
			issued, err := e.refreshStore.Issue(ctx, accountID, now)
			if err != nil {
				return refresh.Issued{}, storeUnavailable(err)
			}
			return issued, nil
		},
	}
}

func (e *Engine) loginFlowDeps() internalflows.LoginDeps {
	deps := internalflows.LoginDeps{
		Now:                   e.now,
		ClientIPFromContext:   clientIPFromContext,
		FindByLoginIdentifier: e.findByLoginIdentifier,
		VerifyPassword:        e.hasher.Verify,
		DummyHash:             e.dummyHash,
		Issue:                 e.issueFlowDeps(),
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,
		Logger:    e.logger,
		Metrics: internalflows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginInactive:    int(MetricLoginInactive),
			LoginRateLimited: int(MetricLoginRateLimited),
		},
		Events: internalflows.LoginEvents{
			LoginSuccess:     auditEventLoginSuccess,
			LoginFailure:     auditEventLoginFailure,
			LoginRateLimited: auditEventLoginRateLimited,
		},
		Errors: internalflows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			AccountInactive:    ErrAccountInactive,
			LoginRateLimited:   ErrLoginRateLimited,
		},
	}

	if e.config.Password.UpgradeOnLogin {
		upgrader, hasUpgrader := e.hasher.(password.Upgrader)
		updater, hasUpdater := e.lookup.(credentials.HashUpdater)
		if hasUpgrader && hasUpdater {
			deps.PasswordNeedsUpgrade = upgrader.NeedsUpgrade
			deps.HashPassword = e.hasher.Hash
			deps.UpdatePasswordHash = func(ctx context.Context, accountID int64, encodedHash string) error {
				return updater.UpdatePasswordHash(ctx, accountID, encodedHash)
			}
		}
	}

	if e.rateLimiter != nil {
		deps.CheckLoginRate = func(ctx context.Context, identifier, ip string) error {
			return mapRateError(e.rateLimiter.CheckLogin(ctx, identifier, ip))
		}
		deps.IncrementLoginRate = func(ctx context.Context, identifier, ip string) error {
			return mapRateError(e.rateLimiter.IncrementLogin(ctx, identifier, ip))
		}
		deps.ResetLoginRate = func(ctx context.Context, identifier string) error {
			return mapRateError(e.rateLimiter.ResetLogin(ctx, identifier))
		}
	}

	return deps
}

func (e *Engine) refreshFlowDeps() internalflows.RefreshDeps {
	return internalflows.RefreshDeps{
		Now:                 e.now,
		ValidateAndRotate:   e.refreshStore.ValidateAndRotate,
		RevokeAllForAccount: e.refreshStore.RevokeAllForAccount,
		FindByID:            e.findByID,
		Issue:               e.issueFlowDeps(),
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,
		Logger:    e.logger,
		Metrics: internalflows.RefreshMetrics{
			RefreshSuccess:  int(MetricRefreshSuccess),
			RefreshFailure:  int(MetricRefreshFailure),
			RefreshReuse:    int(MetricRefreshReuseDetected),
			RefreshInactive: int(MetricRefreshInactive),
		},
		Events: internalflows.RefreshEvents{
			RefreshSuccess: auditEventRefreshSuccess,
			RefreshFailure: auditEventRefreshFailure,
			RefreshReuse:   auditEventRefreshReuse,
		},
	}
}

func (e *Engine) logoutFlowDeps() internalflows.LogoutDeps {
	return internalflows.LogoutDeps{
		Revoke:              e.refreshStore.Revoke,
		RevokeAllForAccount: e.refreshStore.RevokeAllForAccount,
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,
		Logger:    e.logger,
		Metrics: internalflows.LogoutMetrics{
			Logout:    int(MetricLogout),
			LogoutAll: int(MetricLogoutAll),
		},
		Events: internalflows.LogoutEvents{
			Logout:    auditEventLogout,
			LogoutAll: auditEventLogoutAll,
		},
	}
}

func (e *Engine) authenticateFlowDeps() internalflows.AuthenticateDeps {
	deps := internalflows.AuthenticateDeps{
		Now:                   e.now,
		Decode:                e.jwtManager.Decode,
		FindByLoginIdentifier: e.findByLoginIdentifier,
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		Logger: e.logger,
		Metrics: internalflows.AuthenticateMetrics{
			Authenticated: int(MetricAuthenticated),
			Anonymous:     int(MetricAuthAnonymous),
			Rejected:      int(MetricAuthRejected),
			Latency:       int(MetricAuthenticateLatency),
		},
	}
	if e.metrics.LatencyEnabled() {
		deps.ObserveLatency = func(id int, d time.Duration) {
			e.metrics.Observe(MetricID(id), d)
		}
	}
	return deps
}

func (e *Engine) findByLoginIdentifier(ctx context.Context, loginIdentifier string) (Account, bool, error) {
	account, found, err := e.lookup.FindByLoginIdentifier(ctx, loginIdentifier)
	if err != nil {
		return Account{}, false, storeUnavailable(err)
	}
	return account, found, nil
}

func (e *Engine) findByID(ctx context.Context, accountID int64) (Account, bool, error) {
	account, found, err := e.lookup.FindByID(ctx, accountID)
	if err != nil {
		return Account{}, false, storeUnavailable(err)
	}
	return account, found, nil
}

func mapRateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrLoginRateLimited
	default:
		return storeUnavailable(err)
	}
}
