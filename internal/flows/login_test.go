package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/deliveryAuth/permission"
	"github.com/MrEthical07/deliveryAuth/refresh"
)

var (
	errNotReady      = errors.New("not ready")
	errInvalidCreds  = errors.New("invalid credentials")
	errInactive      = errors.New("inactive")
	errRateLimited   = errors.New("rate limited")
	errBackendFailed = errors.New("backend failed")
)

var flowEpoch = time.Unix(1_700_000_000, 0).UTC()

type flowRecorder struct {
	metrics  map[int]int
	events   []string
	verified []string
	issued   []int64
}

func newFlowRecorder() *flowRecorder {
	return &flowRecorder{metrics: map[int]int{}}
}

func (r *flowRecorder) inc(id int) { r.metrics[id]++ }

func (r *flowRecorder) audit(_ context.Context, event string, _ bool, _ int64, _ error, metadata func() map[string]string) {
	if metadata != nil {
		_ = metadata()
	}
	r.events = append(r.events, event)
}

func (r *flowRecorder) issueDeps() IssueDeps {
	return IssueDeps{
		MintAccess: func(subject string, role permission.Role, now time.Time) (string, time.Time, error) {
			return "access-for-" + subject + "-" + role.String(), now.Add(15 * time.Minute), nil
		},
		IssueRefresh: func(_ context.Context, accountID int64, now time.Time) (refresh.Issued, error) {
			r.issued = append(r.issued, accountID)
			return refresh.Issued{Value: "refresh", AccountID: accountID, ExpiresAt: now.Add(7 * 24 * time.Hour)}, nil
		},
	}
}

func aliceAccount() Account {
	return Account{
		ID:              42,
		LoginIdentifier: "alice@example.com",
		PasswordHash:    "hash:secret123",
		Role:            permission.RoleCliente,
		Active:          true,
	}
}

func loginDeps(r *flowRecorder, accounts ...Account) LoginDeps {
	return LoginDeps{
		Now: func() time.Time { return flowEpoch },
		FindByLoginIdentifier: func(_ context.Context, identifier string) (Account, bool, error) {
			for _, a := range accounts {
				if a.LoginIdentifier == identifier {
					return a, true, nil
				}
			}
			return Account{}, false, nil
		},
		VerifyPassword: func(password, encodedHash string) (bool, error) {
			r.verified = append(r.verified, encodedHash)
			return encodedHash == "hash:"+password, nil
		},
		DummyHash: "hash:dummy",
		Issue:     r.issueDeps(),
		MetricInc: r.inc,
		EmitAudit: r.audit,
		Metrics: LoginMetrics{
			LoginSuccess:     1,
			LoginFailure:     2,
			LoginInactive:    3,
			LoginRateLimited: 4,
		},
		Events: LoginEvents{
			LoginSuccess:     "login_success",
			LoginFailure:     "login_failure",
			LoginRateLimited: "login_rate_limited",
		},
		Errors: LoginErrors{
			EngineNotReady:     errNotReady,
			InvalidCredentials: errInvalidCreds,
			AccountInactive:    errInactive,
			LoginRateLimited:   errRateLimited,
		},
	}
}

func TestRunLoginSuccess(t *testing.T) {
	r := newFlowRecorder()
	pair, err := RunLogin(context.Background(), "alice@example.com", "secret123", loginDeps(r, aliceAccount()))
	if err != nil {
		t.Fatalf("RunLogin: %v", err)
	}
	if pair.AccessToken != "access-for-alice@example.com-CLIENTE" {
		t.Fatalf("unexpected access token %q", pair.AccessToken)
	}
	if pair.RefreshToken != "refresh" || pair.AccountID != 42 || pair.Role != permission.RoleCliente {
		t.Fatalf("unexpected pair %+v", pair)
	}
	if !pair.AccessExpiresAt.Equal(flowEpoch.Add(15 * time.Minute)) {
		t.Fatalf("unexpected access expiry %v", pair.AccessExpiresAt)
	}
	if r.metrics[1] != 1 || len(r.events) != 1 || r.events[0] != "login_success" {
		t.Fatalf("unexpected metrics/events %v %v", r.metrics, r.events)
	}
}

func TestRunLoginFailures(t *testing.T) {
	inactive := aliceAccount()
	inactive.Active = false

	tests := []struct {
		name       string
		account    Account
		identifier string
		password   string
		wantErr    error
		wantMetric int
	}{
		{"unknown identifier", aliceAccount(), "bob@example.com", "secret123", errInvalidCreds, 2},
		{"wrong password", aliceAccount(), "alice@example.com", "wrong", errInvalidCreds, 2},
		{"empty password", aliceAccount(), "alice@example.com", "", errInvalidCreds, 2},
		{"inactive with right password", inactive, "alice@example.com", "secret123", errInactive, 3},
		{"inactive with wrong password", inactive, "alice@example.com", "wrong", errInactive, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newFlowRecorder()
			_, err := RunLogin(context.Background(), tc.identifier, tc.password, loginDeps(r, tc.account))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if r.metrics[tc.wantMetric] != 1 {
				t.Fatalf("expected metric %d incremented, got %v", tc.wantMetric, r.metrics)
			}
			if len(r.issued) != 0 {
				t.Fatalf("no refresh token may be issued on failure")
			}
		})
	}
}

func TestRunLoginUnknownIdentifierRunsDummyVerify(t *testing.T) {
	r := newFlowRecorder()
	_, err := RunLogin(context.Background(), "nobody@example.com", "x", loginDeps(r, aliceAccount()))
	if !errors.Is(err, errInvalidCreds) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if len(r.verified) != 1 || r.verified[0] != "hash:dummy" {
		t.Fatalf("expected one dummy verification, got %v", r.verified)
	}
}

func TestRunLoginInactiveSkipsVerify(t *testing.T) {
	r := newFlowRecorder()
	acct := aliceAccount()
	acct.Active = false
	_, _ = RunLogin(context.Background(), acct.LoginIdentifier, "secret123", loginDeps(r, acct))
	if len(r.verified) != 0 {
		t.Fatalf("inactive account must not reach password verification")
	}
}

func TestRunLoginRateLimited(t *testing.T) {
	r := newFlowRecorder()
	deps := loginDeps(r, aliceAccount())
	deps.CheckLoginRate = func(context.Context, string, string) error { return errRateLimited }

	_, err := RunLogin(context.Background(), "alice@example.com", "secret123", deps)
	if !errors.Is(err, errRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if r.metrics[4] != 1 || len(r.verified) != 0 {
		t.Fatalf("rate limited login must not verify password")
	}
}

func TestRunLoginThrottleBackendErrorFailsClosed(t *testing.T) {
	r := newFlowRecorder()
	deps := loginDeps(r, aliceAccount())
	deps.CheckLoginRate = func(context.Context, string, string) error { return errBackendFailed }

	_, err := RunLogin(context.Background(), "alice@example.com", "secret123", deps)
	if !errors.Is(err, errBackendFailed) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestRunLoginCountsFailuresAndResetsOnSuccess(t *testing.T) {
	r := newFlowRecorder()
	deps := loginDeps(r, aliceAccount())
	var increments, resets int
	deps.IncrementLoginRate = func(context.Context, string, string) error {
		increments++
		return nil
	}
	deps.ResetLoginRate = func(context.Context, string) error {
		resets++
		return nil
	}

	_, _ = RunLogin(context.Background(), "alice@example.com", "wrong", deps)
	if _, err := RunLogin(context.Background(), "alice@example.com", "secret123", deps); err != nil {
		t.Fatalf("RunLogin: %v", err)
	}
	if increments != 1 || resets != 1 {
		t.Fatalf("expected 1 increment and 1 reset, got %d/%d", increments, resets)
	}
}

func TestRunLoginLookupErrorPropagates(t *testing.T) {
	r := newFlowRecorder()
	deps := loginDeps(r)
	deps.FindByLoginIdentifier = func(context.Context, string) (Account, bool, error) {
		return Account{}, false, errBackendFailed
	}

	_, err := RunLogin(context.Background(), "alice@example.com", "secret123", deps)
	if !errors.Is(err, errBackendFailed) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestRunLoginMintFailureIssuesNothing(t *testing.T) {
	r := newFlowRecorder()
	deps := loginDeps(r, aliceAccount())
	deps.Issue.MintAccess = func(string, permission.Role, time.Time) (string, time.Time, error) {
		return "", time.Time{}, errBackendFailed
	}

	if _, err := RunLogin(context.Background(), "alice@example.com", "secret123", deps); !errors.Is(err, errBackendFailed) {
		t.Fatalf("expected mint error, got %v", err)
	}
	if len(r.issued) != 0 {
		t.Fatalf("refresh token issued despite mint failure")
	}
}

func TestRunLoginNotReady(t *testing.T) {
	_, err := RunLogin(context.Background(), "a", "b", LoginDeps{Errors: LoginErrors{EngineNotReady: errNotReady}})
	if !errors.Is(err, errNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
}

func TestRunLoginUpgradesLegacyHash(t *testing.T) {
	legacy := aliceAccount()
	legacy.PasswordHash = "hash:secret123"

	tests := []struct {
		name        string
		password    string
		needs       bool
		wantUpdates int
	}{
		{"legacy hash upgraded", "secret123", true, 1},
		{"current hash left alone", "secret123", false, 0},
		{"wrong password never upgrades", "wrong", true, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newFlowRecorder()
			deps := loginDeps(r, legacy)
			var updated []string
			deps.PasswordNeedsUpgrade = func(string) (bool, error) { return tc.needs, nil }
			deps.HashPassword = func(password string) (string, error) { return "v2:" + password, nil }
			deps.UpdatePasswordHash = func(_ context.Context, accountID int64, encodedHash string) error {
				if accountID != 42 {
					t.Fatalf("unexpected account %d", accountID)
				}
				updated = append(updated, encodedHash)
				return nil
			}

			_, _ = RunLogin(context.Background(), legacy.LoginIdentifier, tc.password, deps)
			if len(updated) != tc.wantUpdates {
				t.Fatalf("expected %d updates, got %v", tc.wantUpdates, updated)
			}
			if tc.wantUpdates == 1 && updated[0] != "v2:secret123" {
				t.Fatalf("unexpected upgraded hash %q", updated[0])
			}
		})
	}
}

func TestRunLoginUpgradeFailureKeepsLogin(t *testing.T) {
	r := newFlowRecorder()
	deps := loginDeps(r, aliceAccount())
	deps.PasswordNeedsUpgrade = func(string) (bool, error) { return true, nil }
	deps.HashPassword = func(password string) (string, error) { return "v2:" + password, nil }
	deps.UpdatePasswordHash = func(context.Context, int64, string) error { return errBackendFailed }

	if _, err := RunLogin(context.Background(), "alice@example.com", "secret123", deps); err != nil {
		t.Fatalf("failed hash upgrade must not fail login: %v", err)
	}
	if len(r.issued) != 1 {
		t.Fatalf("expected token pair to be issued")
	}
}
