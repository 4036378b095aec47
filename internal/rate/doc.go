// Package rate throttles failed login attempts with Redis counters.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:  login per identifier (SHA-256 of the identifier, never plaintext)
//   - ali: login per client IP
package rate
