package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/deliveryAuth/logging"
	"github.com/MrEthical07/deliveryAuth/refresh"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureUnknown
	RefreshFailureRevoked
	RefreshFailureExpired
	RefreshFailureRotate
	RefreshFailureLookup
	RefreshFailureAccountInactive
	RefreshFailureIssue
)

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure   RefreshFailureKind
	Err       error
	AccountID int64
	Tokens    TokenPair
}

// RefreshMetrics carries metric IDs needed by the refresh flow.
type RefreshMetrics struct {
	RefreshSuccess  int
	RefreshFailure  int
	RefreshReuse    int
	RefreshInactive int
}

// RefreshEvents carries audit event names used by the refresh flow.
type RefreshEvents struct {
	RefreshSuccess string
	RefreshFailure string
	RefreshReuse   string
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Now func() time.Time

	ValidateAndRotate   func(ctx context.Context, token string, now time.Time) (int64, error)
	RevokeAllForAccount func(ctx context.Context, accountID int64) error
	FindByID            func(ctx context.Context, accountID int64) (Account, bool, error)

	Issue IssueDeps

	MetricInc func(int)
	EmitAudit AuditFunc
	Logger    logging.Logger

	Metrics RefreshMetrics
	Events  RefreshEvents
}

// RunRefresh consumes a refresh token and issues a new pair for the owning
// account. The presented token is spent even when the account turns out to be
// inactive; in that case every other token of the account is revoked too.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	metricInc := metricIncOrNop(deps.MetricInc)
	emitAudit := auditOrNop(deps.EmitAudit)
	log := loggerOrNop(deps.Logger)

	now := nowOrDefault(deps.Now)

	accountID, err := deps.ValidateAndRotate(ctx, refreshToken, now)
	if err != nil {
		kind, reason := classifyRotateError(err)
		if kind == RefreshFailureRevoked {
			metricInc(deps.Metrics.RefreshReuse)
			emitAudit(ctx, deps.Events.RefreshReuse, false, 0, err, nil)
		}
		if kind == RefreshFailureRotate {
			log.Error(ctx, "refresh rotation failed", "error", err)
		} else {
			metricInc(deps.Metrics.RefreshFailure)
			emitAudit(ctx, deps.Events.RefreshFailure, false, 0, err, func() map[string]string {
				return map[string]string{
					"reason": reason,
				}
			})
			log.Info(ctx, "refresh rejected", "reason", reason)
		}
		return RefreshResult{
			Failure: kind,
			Err:     err,
		}
	}

	account, found, err := deps.FindByID(ctx, accountID)
	if err != nil {
		log.Error(ctx, "credential lookup failed", "account_id", accountID, "error", err)
		return RefreshResult{
			Failure:   RefreshFailureLookup,
			Err:       err,
			AccountID: accountID,
		}
	}
	if !found || !account.Active {
		if deps.RevokeAllForAccount != nil {
			if err := deps.RevokeAllForAccount(ctx, accountID); err != nil {
				log.Warn(ctx, "revoke remaining refresh tokens failed", "account_id", accountID, "error", err)
			}
		}
		reason := "account_inactive"
		if !found {
			reason = "account_not_found"
		}
		metricInc(deps.Metrics.RefreshInactive)
		emitAudit(ctx, deps.Events.RefreshFailure, false, accountID, nil, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		log.Info(ctx, "refresh rejected", "reason", reason, "account_id", accountID)
		return RefreshResult{
			Failure:   RefreshFailureAccountInactive,
			AccountID: accountID,
		}
	}

	pair, err := IssueTokenPair(ctx, account, now, deps.Issue)
	if err != nil {
		log.Error(ctx, "token issuance failed", "account_id", accountID, "error", err)
		return RefreshResult{
			Failure:   RefreshFailureIssue,
			Err:       err,
			AccountID: accountID,
		}
	}

	metricInc(deps.Metrics.RefreshSuccess)
	emitAudit(ctx, deps.Events.RefreshSuccess, true, accountID, nil, nil)

	return RefreshResult{
		AccountID: accountID,
		Tokens:    pair,
	}
}

func classifyRotateError(err error) (RefreshFailureKind, string) {
	switch {
	case errors.Is(err, refresh.ErrUnknownToken):
		return RefreshFailureUnknown, "unknown_token"
	case errors.Is(err, refresh.ErrTokenRevoked):
		return RefreshFailureRevoked, "token_revoked"
	case errors.Is(err, refresh.ErrTokenExpired):
		return RefreshFailureExpired, "token_expired"
	default:
		return RefreshFailureRotate, "store_error"
	}
}
