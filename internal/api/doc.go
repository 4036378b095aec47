// Package api is the HTTP surface of the deliveryauth server.
//
// Routes:
//
//	POST /auth/login        {"loginIdentifier","password"} -> token pair
//	POST /auth/refresh      {"refreshToken"} -> token pair
//	POST /auth/logout       {"refreshToken"} -> 204
//	POST /auth/logout-all   bearer required -> 204
//	GET  /auth/me           bearer required -> identity
//	GET  /admin/ping        ADMIN only
//	GET  /metrics           Prometheus text, when configured
//	GET  /healthz
//
// Every request gets an X-Request-ID and passes through
// middleware.Authenticate, so handlers see the caller identity when one is
// present.
package api
