package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+~`|}{[]:;?><,./-="
	passwordMinLen  = 8
	passwordMaxLen  = 12
)

// GeneratePassword returns a random password between 8 and 12 characters,
// suitable for a forced credential reset.
func GeneratePassword() (string, error) {
	span, err := rand.Int(rand.Reader, big.NewInt(passwordMaxLen-passwordMinLen+1))
	if err != nil {
		return "", fmt.Errorf("failed to pick password length: %w", err)
	}
	length := passwordMinLen + int(span.Int64())

	password := make([]byte, length)
	for i := range password {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to pick password character: %w", err)
		}
		password[i] = passwordCharset[idx.Int64()]
	}
	return string(password), nil
}
