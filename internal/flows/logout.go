package flows

import (
	"context"

	"github.com/MrEthical07/deliveryAuth/logging"
)

// LogoutMetrics carries metric IDs needed by the logout flows.
type LogoutMetrics struct {
	Logout    int
	LogoutAll int
}

// LogoutEvents carries audit event names used by the logout flows.
type LogoutEvents struct {
	Logout    string
	LogoutAll string
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Revoke              func(ctx context.Context, token string) error
	RevokeAllForAccount func(ctx context.Context, accountID int64) error

	MetricInc func(int)
	EmitAudit AuditFunc
	Logger    logging.Logger

	Metrics LogoutMetrics
	Events  LogoutEvents
}

// RunLogout revokes a single refresh token. Unknown tokens are not an error.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) error {
	if err := deps.Revoke(ctx, refreshToken); err != nil {
		loggerOrNop(deps.Logger).Error(ctx, "refresh revoke failed", "error", err)
		return err
	}
	metricIncOrNop(deps.MetricInc)(deps.Metrics.Logout)
	auditOrNop(deps.EmitAudit)(ctx, deps.Events.Logout, true, 0, nil, nil)
	return nil
}

// RunLogoutAll revokes every refresh token held by an account.
func RunLogoutAll(ctx context.Context, accountID int64, deps LogoutDeps) error {
	if err := deps.RevokeAllForAccount(ctx, accountID); err != nil {
		loggerOrNop(deps.Logger).Error(ctx, "refresh revoke-all failed", "account_id", accountID, "error", err)
		return err
	}
	metricIncOrNop(deps.MetricInc)(deps.Metrics.LogoutAll)
	auditOrNop(deps.EmitAudit)(ctx, deps.Events.LogoutAll, true, accountID, nil, nil)
	return nil
}
