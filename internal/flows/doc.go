// Package flows contains the orchestration behind every Engine operation.
//
// Each flow function (RunLogin, RunRefresh, RunLogout, RunLogoutAll,
// RunAuthenticate) accepts a typed dependency struct of plain functions and
// returns a result. Tests drive them with stub functions; the Engine wires the
// real credential lookup, token codec and refresh store.
//
// # Architecture boundaries
//
// Flows coordinate the credential lookup, password verifier, token codec,
// refresh store, login throttle, audit and metrics. They own none of these
// resources.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import deliveryAuth (to avoid import cycles).
//   - Perform I/O other than through its dependency functions.
package flows
