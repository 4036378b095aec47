package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/deliveryAuth/logging"
)

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginInactive    int
	LoginRateLimited int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	AccountInactive    error
	LoginRateLimited   error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string

	// Optional throttling. CheckLoginRate must return an error matching
	// Errors.LoginRateLimited when the budget is spent.
	CheckLoginRate     func(ctx context.Context, identifier, ip string) error
	IncrementLoginRate func(ctx context.Context, identifier, ip string) error
	ResetLoginRate     func(ctx context.Context, identifier string) error

	FindByLoginIdentifier func(ctx context.Context, identifier string) (Account, bool, error)
	VerifyPassword        func(password, encodedHash string) (bool, error)
	// DummyHash is verified against when the identifier is unknown so the
	// response time does not depend on account existence.
	DummyHash string

	// Optional hash upgrade, run after a successful verify. All three must be
	// set for it to happen; failures are logged and never fail the login.
	PasswordNeedsUpgrade func(encodedHash string) (bool, error)
	HashPassword         func(password string) (string, error)
	UpdatePasswordHash   func(ctx context.Context, accountID int64, encodedHash string) error

	Issue IssueDeps

	MetricInc func(int)
	EmitAudit AuditFunc
	Logger    logging.Logger

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin authenticates a login identifier and password and issues a token
// pair. Unknown identifiers and wrong passwords are indistinguishable to the
// caller; inactive accounts fail with Errors.AccountInactive whether or not the
// password matched.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) (TokenPair, error) {
	metricInc := metricIncOrNop(deps.MetricInc)
	emitAudit := auditOrNop(deps.EmitAudit)
	log := loggerOrNop(deps.Logger)

	if deps.FindByLoginIdentifier == nil || deps.VerifyPassword == nil || !deps.Issue.ready() {
		return TokenPair{}, deps.Errors.EngineNotReady
	}

	ip := ""
	if deps.ClientIPFromContext != nil {
		ip = deps.ClientIPFromContext(ctx)
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, identifier, ip); err != nil {
			if !errors.Is(err, deps.Errors.LoginRateLimited) {
				log.Error(ctx, "login throttle check failed", "error", err)
				return TokenPair{}, err
			}
			metricInc(deps.Metrics.LoginRateLimited)
			emitAudit(ctx, deps.Events.LoginRateLimited, false, 0, deps.Errors.LoginRateLimited, func() map[string]string {
				return map[string]string{
					"identifier": identifier,
				}
			})
			log.Info(ctx, "login rejected", "reason", "rate_limited")
			return TokenPair{}, deps.Errors.LoginRateLimited
		}
	}

	fail := func(accountID int64, reason string, hostErr error) (TokenPair, error) {
		if deps.IncrementLoginRate != nil {
			if err := deps.IncrementLoginRate(ctx, identifier, ip); err != nil && !errors.Is(err, deps.Errors.LoginRateLimited) {
				log.Warn(ctx, "login throttle increment failed", "error", err)
			}
		}
		if errors.Is(hostErr, deps.Errors.AccountInactive) {
			metricInc(deps.Metrics.LoginInactive)
		} else {
			metricInc(deps.Metrics.LoginFailure)
		}
		emitAudit(ctx, deps.Events.LoginFailure, false, accountID, hostErr, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     reason,
			}
		})
		log.Info(ctx, "login rejected", "reason", reason)
		return TokenPair{}, hostErr
	}

	account, found, err := deps.FindByLoginIdentifier(ctx, identifier)
	if err != nil {
		log.Error(ctx, "credential lookup failed", "error", err)
		return TokenPair{}, err
	}
	if !found {
		if deps.DummyHash != "" {
			_, _ = deps.VerifyPassword(password, deps.DummyHash)
		}
		return fail(0, "account_not_found", deps.Errors.InvalidCredentials)
	}

	if !account.Active {
		return fail(account.ID, "account_inactive", deps.Errors.AccountInactive)
	}

	ok, err := deps.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		log.Warn(ctx, "stored password hash rejected", "account_id", account.ID, "error", err)
	}
	if err != nil || !ok {
		return fail(account.ID, "password_mismatch", deps.Errors.InvalidCredentials)
	}

	upgradePasswordHash(ctx, account, password, deps, log)

	pair, err := IssueTokenPair(ctx, account, nowOrDefault(deps.Now), deps.Issue)
	if err != nil {
		log.Error(ctx, "token issuance failed", "account_id", account.ID, "error", err)
		return TokenPair{}, err
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, identifier); err != nil {
			log.Warn(ctx, "login throttle reset failed", "error", err)
		}
	}

	metricInc(deps.Metrics.LoginSuccess)
	emitAudit(ctx, deps.Events.LoginSuccess, true, account.ID, nil, func() map[string]string {
		return map[string]string{
			"identifier": identifier,
			"role":       account.Role.String(),
		}
	})
	log.Debug(ctx, "login succeeded", "account_id", account.ID)

	return pair, nil
}

func upgradePasswordHash(ctx context.Context, account Account, password string, deps LoginDeps, log logging.Logger) {
	if deps.PasswordNeedsUpgrade == nil || deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return
	}
	needsUpgrade, err := deps.PasswordNeedsUpgrade(account.PasswordHash)
	if err != nil || !needsUpgrade {
		return
	}
	upgraded, err := deps.HashPassword(password)
	if err != nil {
		log.Warn(ctx, "password hash upgrade generation failed", "account_id", account.ID, "error", err)
		return
	}
	if err := deps.UpdatePasswordHash(ctx, account.ID, upgraded); err != nil {
		log.Warn(ctx, "password hash upgrade update failed", "account_id", account.ID, "error", err)
		return
	}
	log.Info(ctx, "password hash upgraded", "account_id", account.ID)
}

func loggerOrNop(l logging.Logger) logging.Logger {
	if l != nil {
		return l
	}
	return logging.Nop{}
}
