package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword returns a salted bcrypt hash. A cost of zero selects
// bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Hasher binds HashPassword to a cost for callers that take a func.
func Hasher(cost int) func(string) (string, error) {
	return func(plain string) (string, error) {
		return HashPassword(plain, cost)
	}
}

// VerifyPassword reports whether plain matches hash. It fails closed: an
// empty or malformed hash, or a panic inside the comparison, is a mismatch.
func VerifyPassword(plain, hash string) (ok bool) {
	if hash == "" {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
