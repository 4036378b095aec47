// Package refresh defines the refresh-token store contract and the opaque token
// format shared by every backend.
//
// # Token format
//
// A refresh token is 32 bytes from crypto/rand, base64url encoded without
// padding. It is an opaque lookup key, not a signed value. Stores never keep the
// plaintext: records are keyed by the SHA-256 of the raw bytes.
//
// # Rotation
//
// [Store.ValidateAndRotate] is single-use. Each backend performs the
// check-and-revoke as one atomic step, so of many concurrent callers presenting
// the same token exactly one observes success.
//
// Backends live in sub-packages: redisstore and sqlstore. [MemoryStore] serves
// tests and single-process deployments.
package refresh
