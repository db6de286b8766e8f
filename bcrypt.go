package auth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt hashes without truncating
const MaxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// BcryptHasher is a PasswordHasher backed by bcrypt.
// A zero Cost uses the build default.
type BcryptHasher struct {
	Cost int
}

var _ PasswordHasher = BcryptHasher{}

// HashPassword generates a salted hash of password
func (b BcryptHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	cost := b.Cost
	if cost == 0 {
		cost = passwordHashCost()
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func (b BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// HashPassword will generate a password hash with the build default cost
func HashPassword(password string) (string, error) {
	return BcryptHasher{}.HashPassword(password)
}

// ComparePasswordAndHash validates password against hash
func ComparePasswordAndHash(password, hash string) error {
	return BcryptHasher{}.ComparePasswordAndHash(password, hash)
}

// RandomPasswordHash returns a hash nobody knows the password for.
// Used for accounts created through delegated login.
func RandomPasswordHash(hasher PasswordHasher) (string, error) {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return hasher.HashPassword(uuid.New().String())
}
