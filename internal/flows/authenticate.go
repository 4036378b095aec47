package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/deliveryAuth/jwt"
	"github.com/MrEthical07/deliveryAuth/logging"
	"github.com/MrEthical07/deliveryAuth/permission"
)

// AuthenticateOutcome classifies how a request was resolved.
type AuthenticateOutcome int

const (
	// AuthenticateAnonymous means no Authorization header was presented.
	AuthenticateAnonymous AuthenticateOutcome = iota
	// AuthenticateRejected means a credential was presented but did not resolve
	// to an active account. The request still proceeds unauthenticated.
	AuthenticateRejected
	// AuthenticateOK means an identity is attached.
	AuthenticateOK
)

// Identity is the flow-local authenticated principal.
type Identity struct {
	AccountID       int64
	LoginIdentifier string
	Role            permission.Role
}

// AuthenticateResult carries the resolved identity or the rejection reason.
type AuthenticateResult struct {
	Outcome  AuthenticateOutcome
	Identity Identity
	Reason   string
	Err      error
}

// AuthenticateMetrics carries metric IDs needed by the authenticate flow.
type AuthenticateMetrics struct {
	Authenticated int
	Anonymous     int
	Rejected      int
	Latency       int
}

// AuthenticateDeps captures request-authentication dependencies.
type AuthenticateDeps struct {
	Now                   func() time.Time
	Decode                func(token string, now time.Time) (*jwt.Claims, error)
	FindByLoginIdentifier func(ctx context.Context, identifier string) (Account, bool, error)

	MetricInc      func(int)
	ObserveLatency func(int, time.Duration)
	Logger         logging.Logger

	Metrics AuthenticateMetrics
}

const bearerScheme = "Bearer"

// BearerToken extracts the token from an Authorization header value. The scheme
// is matched case-insensitively; the token itself must be a single non-empty
// field.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", false
	}
	return token, true
}

// RunAuthenticate resolves the Authorization header of a request. It never
// fails the request: every problem downgrades to an unauthenticated outcome
// with a reason suitable for debug logging.
func RunAuthenticate(ctx context.Context, authorizationHeader string, deps AuthenticateDeps) AuthenticateResult {
	metricInc := metricIncOrNop(deps.MetricInc)
	log := loggerOrNop(deps.Logger)

	start := time.Now()
	if deps.ObserveLatency != nil {
		defer func() {
			deps.ObserveLatency(deps.Metrics.Latency, time.Since(start))
		}()
	}

	if strings.TrimSpace(authorizationHeader) == "" {
		metricInc(deps.Metrics.Anonymous)
		return AuthenticateResult{Outcome: AuthenticateAnonymous}
	}

	reject := func(reason string, err error) AuthenticateResult {
		metricInc(deps.Metrics.Rejected)
		if err != nil {
			log.Debug(ctx, "request left unauthenticated", "reason", reason, "error", err)
		} else {
			log.Debug(ctx, "request left unauthenticated", "reason", reason)
		}
		return AuthenticateResult{
			Outcome: AuthenticateRejected,
			Reason:  reason,
			Err:     err,
		}
	}

	if deps.Decode == nil || deps.FindByLoginIdentifier == nil {
		return reject("engine_not_ready", nil)
	}

	token, ok := BearerToken(authorizationHeader)
	if !ok {
		return reject("malformed_header", nil)
	}

	claims, err := deps.Decode(token, nowOrDefault(deps.Now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrExpired):
			return reject("expired", err)
		case errors.Is(err, jwt.ErrInvalidSignature):
			return reject("invalid_signature", err)
		default:
			return reject("malformed_token", err)
		}
	}

	account, found, err := deps.FindByLoginIdentifier(ctx, claims.Subject)
	if err != nil {
		return reject("lookup_failed", err)
	}
	if !found || !account.Active {
		return reject("stale_account", nil)
	}

	metricInc(deps.Metrics.Authenticated)
	return AuthenticateResult{
		Outcome: AuthenticateOK,
		Identity: Identity{
			AccountID:       account.ID,
			LoginIdentifier: account.LoginIdentifier,
			Role:            account.Role,
		},
	}
}
