package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/deliveryAuth/credentials"
	"github.com/MrEthical07/deliveryAuth/permission"
	"github.com/MrEthical07/deliveryAuth/refresh"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Login        LoginDeps
	Refresh      RefreshDeps
	Logout       LogoutDeps
	Authenticate AuthenticateDeps
}

// Account is the flow-local account model.
type Account = credentials.Account

// TokenPair is the flow-local token response shape.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	AccountID        int64
	Role             permission.Role
}

// IssueDeps mints an access token and persists a fresh refresh token.
type IssueDeps struct {
	MintAccess   func(subject string, role permission.Role, now time.Time) (string, time.Time, error)
	IssueRefresh func(ctx context.Context, accountID int64, now time.Time) (refresh.Issued, error)
}

// IssueTokenPair mints the access token first so a signing failure leaves the
// refresh store untouched.
func IssueTokenPair(ctx context.Context, account Account, now time.Time, deps IssueDeps) (TokenPair, error) {
	access, accessExp, err := deps.MintAccess(account.LoginIdentifier, account.Role, now)
	if err != nil {
		return TokenPair{}, err
	}

	issued, err := deps.IssueRefresh(ctx, account.ID, now)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     issued.Value,
		RefreshExpiresAt: issued.ExpiresAt,
		AccountID:        account.ID,
		Role:             account.Role,
	}, nil
}

func (d IssueDeps) ready() bool {
	return d.MintAccess != nil && d.IssueRefresh != nil
}

func metricIncOrNop(fn func(int)) func(int) {
	if fn != nil {
		return fn
	}
	return func(int) {}
}

func auditOrNop(fn AuditFunc) AuditFunc {
	if fn != nil {
		return fn
	}
	return func(context.Context, string, bool, int64, error, func() map[string]string) {}
}

// AuditFunc emits one audit record. metadata is only invoked when auditing is on.
type AuditFunc func(ctx context.Context, event string, success bool, accountID int64, err error, metadata func() map[string]string)

func nowOrDefault(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now()
}
