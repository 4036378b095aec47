// Package internal holds packages private to deliveryAuth.
//
//   - api: HTTP routes of the deliveryauth server
//   - audit: async audit event dispatch
//   - config: environment configuration for the server
//   - flows: login, refresh, logout and authenticate orchestration
//   - rate: Redis-backed login throttle
package internal
