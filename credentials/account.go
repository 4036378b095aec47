package credentials

import (
	"context"
	"errors"

	"github.com/MrEthical07/deliveryAuth/permission"
)

// Account is the credential record for one login.
type Account struct {
	ID              int64           `json:"id"`
	LoginIdentifier string          `json:"login"`
	PasswordHash    string          `json:"password_hash"`
	Role            permission.Role `json:"role"`
	Active          bool            `json:"active"`
}

// Lookup resolves accounts. The boolean is false when the account does not
// exist; errors are reserved for store failures.
type Lookup interface {
	FindByLoginIdentifier(ctx context.Context, loginIdentifier string) (Account, bool, error)
	FindByID(ctx context.Context, accountID int64) (Account, bool, error)
}

// HashUpdater is implemented by stores that can replace a stored password
// hash. The engine uses it to move legacy hashes to the current scheme after
// a successful login.
type HashUpdater interface {
	UpdatePasswordHash(ctx context.Context, accountID int64, encodedHash string) error
}

var (
	// ErrDuplicateLogin is returned when a login identifier is already taken.
	ErrDuplicateLogin = errors.New("login identifier already exists")
	// ErrDuplicateID is returned when an account id is already taken.
	ErrDuplicateID = errors.New("account id already exists")
	// ErrAccountNotFound is returned by mutations on a missing account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidAccount is returned for records missing required fields.
	ErrInvalidAccount = errors.New("invalid account record")
)

// Validate checks the fields every stored account must carry.
func (a Account) Validate() error {
	if a.ID <= 0 || a.LoginIdentifier == "" || a.PasswordHash == "" || !a.Role.Valid() {
		return ErrInvalidAccount
	}
	return nil
}
