package services

import (
	"encoding/json"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

const backupCodeCount = 8

// TOTPService provisions and verifies time-based one-time passwords for
// staff two-factor authentication.
type TOTPService struct {
	issuer    string
	passwords *PasswordService
}

// NewTOTPService creates a new TOTP service
func NewTOTPService(issuer string, passwords *PasswordService) *TOTPService {
	if issuer == "" {
		issuer = "accreditation-service"
	}
	return &TOTPService{issuer: issuer, passwords: passwords}
}

// GenerateSecret provisions a new TOTP secret for the account and returns
// the secret plus the otpauth:// provisioning URI for authenticator apps.
func (s *TOTPService) GenerateSecret(accountName string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

// ValidateCode verifies a six-digit code against the account secret.
func (s *TOTPService) ValidateCode(secret, code string) bool {
	return totp.Validate(code, secret)
}

// GenerateBackupCodes produces single-use recovery codes. The plaintext
// codes are returned for one-time display; only their bcrypt hashes are
// stored on the account.
func (s *TOTPService) GenerateBackupCodes() (plaintext []string, stored []byte, err error) {
	codes := make([]string, backupCodeCount)
	hashes := make([]string, backupCodeCount)
	for i := range codes {
		code, err := randomString(10)
		if err != nil {
			return nil, nil, err
		}
		hash, err := s.passwords.Hash(code)
		if err != nil {
			return nil, nil, err
		}
		codes[i] = code
		hashes[i] = hash
	}
	raw, err := json.Marshal(hashes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode backup codes: %w", err)
	}
	return codes, raw, nil
}

// ConsumeBackupCode checks a recovery code against the account's stored
// hashes. On a match the hash is removed and the updated set is written back
// to the user; callers must persist the mutation.
func (s *TOTPService) ConsumeBackupCode(user *models.User, code string) bool {
	if len(user.BackupCodes) == 0 {
		return false
	}
	var hashes []string
	if err := json.Unmarshal(user.BackupCodes, &hashes); err != nil {
		return false
	}
	for i, hash := range hashes {
		if s.passwords.Verify(hash, code) {
			remaining := append(hashes[:i], hashes[i+1:]...)
			raw, err := json.Marshal(remaining)
			if err != nil {
				return false
			}
			user.BackupCodes = raw
			return true
		}
	}
	return false
}
