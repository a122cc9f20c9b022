package model

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// SetPassword hashes the plain-text password onto the user.
func (u *WebLogUser) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), 12)
	if err != nil {
		return err
	}

	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the plain-text password matches the stored hash.
func (u *WebLogUser) CheckPassword(plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}
