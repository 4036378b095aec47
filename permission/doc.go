// Package permission defines the closed set of account roles used by deliveryAuth.
//
// # Role model
//
// Every account carries exactly one [Role]. Roles are a fixed enumeration: the zero
// value is invalid and [ParseRole] rejects anything outside the known set, so a
// switch over roles can be exhaustive. Each role maps to a single string authority
// of the form ROLE_<NAME>.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import deliveryAuth, jwt, or refresh.
//   - Evaluate permission graphs beyond one role per account.
package permission
