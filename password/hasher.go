package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes new passwords and verifies stored hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// Upgrader is implemented by hashers that can tell when a stored hash should
// be replaced with one produced by Hash.
type Upgrader interface {
	NeedsUpgrade(encodedHash string) (bool, error)
}

// ErrUnsupportedHash is returned by Multi for hashes of an unknown scheme.
var ErrUnsupportedHash = errors.New("unsupported password hash scheme")

// Bcrypt verifies and produces bcrypt hashes.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. A cost of zero uses bcrypt.DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash returns a bcrypt hash. bcrypt only uses the first 72 bytes.
func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > 72 {
		return "", bcrypt.ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches encodedHash.
func (b *Bcrypt) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

func isBcrypt(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}

// Multi hashes with argon2id and verifies either argon2id or bcrypt, picking
// the scheme from the hash prefix.
type Multi struct {
	argon  *Argon2
	bcrypt *Bcrypt
}

// NewMulti returns a Multi over the given argon2id config.
func NewMulti(cfg Config) (*Multi, error) {
	argon, err := NewArgon2(cfg)
	if err != nil {
		return nil, err
	}
	bc, err := NewBcrypt(0)
	if err != nil {
		return nil, err
	}
	return &Multi{argon: argon, bcrypt: bc}, nil
}

// Hash implements Hasher with argon2id.
func (m *Multi) Hash(password string) (string, error) {
	return m.argon.Hash(password)
}

// Verify implements Hasher.
func (m *Multi) Verify(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "$"+algorithmID+"$"):
		return m.argon.Verify(password, encodedHash)
	case isBcrypt(encodedHash):
		return m.bcrypt.Verify(password, encodedHash)
	default:
		return false, ErrUnsupportedHash
	}
}

// NeedsUpgrade reports true for bcrypt hashes and for argon2id hashes weaker
// than the current config.
func (m *Multi) NeedsUpgrade(encodedHash string) (bool, error) {
	if isBcrypt(encodedHash) {
		return true, nil
	}
	return m.argon.NeedsUpgrade(encodedHash)
}
