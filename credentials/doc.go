// Package credentials holds the account record read by the authentication core
// and the stores that resolve it.
//
// The core only writes password hashes, and only through [HashUpdater] when a
// stored hash uses an outdated scheme. Deactivation happens here (or in
// whatever backs [Lookup]) and is picked up on the next request, since every
// request re-resolves the account.
package credentials
