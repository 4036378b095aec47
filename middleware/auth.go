package middleware

import (
	"context"
	"net/http"

	deliveryAuth "github.com/MrEthical07/deliveryAuth"
)

// Authenticator is the subset of *deliveryAuth.Engine used by the middleware.
type Authenticator interface {
	Authenticate(ctx context.Context, authorizationHeader string) (deliveryAuth.Identity, bool)
}

type identityContextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id deliveryAuth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity stored by Authenticate.
func IdentityFromContext(ctx context.Context) (deliveryAuth.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(deliveryAuth.Identity)
	return id, ok
}

// Authenticate attaches the caller identity to the request context when the
// Authorization header carries a valid access token. Invalid or missing
// credentials leave the request anonymous.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				next.ServeHTTP(w, r)
				return
			}

			id, ok := auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuthenticated rejects anonymous requests with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits callers holding one of roles. Anonymous callers get 401,
// authenticated callers with another role get 403.
func RequireRole(roles ...deliveryAuth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if !id.HasRole(roles...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="deliveryauth"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
