package services

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost is used for both staff passwords and form link passwords.
	bcryptCost = 12

	// formTokenLength is the length of the URL token identifying a form.
	formTokenLength = 32

	// formPasswordLength is the length of the generated one-time link password.
	formPasswordLength = 12

	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// PasswordService hashes and verifies credentials and generates the random
// token/password pairs for external form links.
type PasswordService struct{}

// NewPasswordService creates a new password service
func NewPasswordService() *PasswordService {
	return &PasswordService{}
}

// Hash returns the bcrypt hash of a plaintext credential.
func (s *PasswordService) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether the plaintext matches the stored hash.
func (s *PasswordService) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// GenerateToken produces a new random form token.
func (s *PasswordService) GenerateToken() (string, error) {
	return randomString(formTokenLength)
}

// GeneratePassword produces a new random one-time link password.
func (s *PasswordService) GeneratePassword() (string, error) {
	return randomString(formPasswordLength)
}

// randomString draws n characters from the token alphabet using crypto/rand.
func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		out[i] = tokenAlphabet[idx.Int64()]
	}
	return string(out), nil
}
