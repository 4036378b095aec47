// Package jwt mints and decodes the short-lived signed access tokens issued by
// deliveryAuth.
//
// Tokens carry the login identifier as subject, the account role, issued-at and
// expiry. Decoding reports one of three typed outcomes on failure:
// [ErrMalformedToken], [ErrInvalidSignature] or [ErrExpired]. The current time is
// always passed in by the caller so minting and decoding share one clock source.
package jwt
