// Package deliveryAuth is the stateless authentication core of the delivery
// platform: password login, short-lived JWT access tokens, single-use rotating
// refresh tokens and per-request bearer authentication.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// deliveryAuth is the public surface. It exposes [Engine], [Builder], [Config],
// the error taxonomy and value types ([TokenPair], [Identity]). Flow
// orchestration, login throttling and audit dispatch live under internal/.
// Pluggable pieces have their own packages: [credentials] for account lookup,
// [refresh] and its redisstore/sqlstore backends for refresh tokens,
// [password] for hashing, [jwt] for the access-token codec.
//
// # What this package must NOT do
//
//   - Keep per-user session state. Access tokens are validated from their
//     signature plus one account lookup.
//   - Log or audit passwords, password hashes or token values.
//   - Import a sub-package that re-imports deliveryAuth.
package deliveryAuth
