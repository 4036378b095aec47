package deliveryAuth

import (
	"time"

	"github.com/MrEthical07/deliveryAuth/credentials"
	"github.com/MrEthical07/deliveryAuth/password"
	"github.com/MrEthical07/deliveryAuth/permission"
	"github.com/MrEthical07/deliveryAuth/refresh"
)

// Account is the credential record the engine authenticates against.
//
//	Docs: credentials.Account
type Account = credentials.Account

// CredentialLookup resolves accounts by login identifier and by id. A false
// boolean means the account does not exist; errors are store failures.
type CredentialLookup = credentials.Lookup

// PasswordHasher hashes new passwords and verifies stored hashes.
type PasswordHasher = password.Hasher

// RefreshStore persists refresh-token records.
type RefreshStore = refresh.Store

// Role is the closed set of account roles.
type Role = permission.Role

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Identity is the request-scoped principal produced by Authenticate.
type Identity struct {
	AccountID       int64
	LoginIdentifier string
	Role            Role
}

// HasRole reports whether the identity holds one of roles.
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}
