// Package middleware exposes HTTP adapters around deliveryAuth.Engine.
//
// # Handlers
//
//   - [Authenticate] resolves the bearer token on every request. It never
//     rejects: requests without a usable credential continue anonymously.
//   - [RequireAuthenticated] answers 401 when no identity is present.
//   - [RequireRole] answers 401 for anonymous callers and 403 for callers
//     outside the allowed roles.
//
// Handlers read the result with [IdentityFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not parse
// tokens or touch any store.
package middleware
