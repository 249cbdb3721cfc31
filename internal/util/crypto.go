package util

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int) ([]byte, error) {
	if length <= 0 {
		return nil, errors.New("length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// CryptoRandomString returns length random lowercase hex characters. Used
// for OAuth state values and generated passwords.
func CryptoRandomString(length int) (string, error) {
	bytes, err := CryptoRandomBytes((length + 1) / 2)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}
