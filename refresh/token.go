package refresh

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const tokenRawSize = 32

// Hash is the SHA-256 of a refresh token's raw bytes. It is the storage key.
type Hash [sha256.Size]byte

// String returns the lowercase hex form used in Redis keys and SQL rows.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

var errTokenFormat = errors.New("refresh token format invalid")

// NewToken generates a fresh opaque token and its storage hash.
func NewToken() (string, Hash, error) {
	var raw [tokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", Hash{}, err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), sha256.Sum256(raw[:]), nil
}

// HashToken validates the token shape and returns its storage hash. Any value
// that could not have come from NewToken is rejected.
func HashToken(token string) (Hash, error) {
	if base64.RawURLEncoding.EncodedLen(tokenRawSize) != len(token) {
		return Hash{}, errTokenFormat
	}
	raw, err := base64.RawURLEncoding.Strict().DecodeString(token)
	if err != nil || len(raw) != tokenRawSize {
		return Hash{}, errTokenFormat
	}
	return sha256.Sum256(raw), nil
}
