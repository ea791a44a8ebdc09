package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

// Token types carried in the "typ" claim. A staff token never opens the
// external form surface and vice versa.
const (
	TokenTypeStaff = "staff"
	TokenTypeForm  = "form"
)

// StaffClaims is the JWT payload for authenticated staff sessions.
type StaffClaims struct {
	UserID   uuid.UUID       `json:"user_id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
	Type     string          `json:"typ"`
	jwt.RegisteredClaims
}

// FormClaims is the JWT payload for external submission sessions. The
// session is scoped to exactly one form.
type FormClaims struct {
	FormID    uuid.UUID `json:"form_id"`
	FormToken string    `json:"form_token"`
	Type      string    `json:"typ"`
	jwt.RegisteredClaims
}

// JWTService issues and validates the two session token flavors.
type JWTService struct {
	secret       []byte
	staffTTL     time.Duration
	formTTL      time.Duration
	issuer       string
	signingAlgo  *jwt.SigningMethodHMAC
	parseOptions []jwt.ParserOption
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string, staffTTL, formTTL time.Duration) *JWTService {
	if staffTTL <= 0 {
		staffTTL = 8 * time.Hour
	}
	if formTTL <= 0 {
		formTTL = 2 * time.Hour
	}
	return &JWTService{
		secret:      []byte(secret),
		staffTTL:    staffTTL,
		formTTL:     formTTL,
		issuer:      "accreditation-service",
		signingAlgo: jwt.SigningMethodHS256,
		parseOptions: []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer("accreditation-service"),
		},
	}
}

// IssueStaffToken creates a session token for an authenticated staff user.
func (s *JWTService) IssueStaffToken(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().UTC().Add(s.staffTTL)
	claims := StaffClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Type:     TokenTypeStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	token, err := jwt.NewWithClaims(s.signingAlgo, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign staff token: %w", err)
	}
	return token, expiresAt, nil
}

// IssueFormToken creates a submission session scoped to one form.
func (s *JWTService) IssueFormToken(formID uuid.UUID, formToken string) (string, time.Time, error) {
	expiresAt := time.Now().UTC().Add(s.formTTL)
	claims := FormClaims{
		FormID:    formID,
		FormToken: formToken,
		Type:      TokenTypeForm,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   formID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	token, err := jwt.NewWithClaims(s.signingAlgo, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign form token: %w", err)
	}
	return token, expiresAt, nil
}

// ValidateStaffToken parses and validates a staff session token.
func (s *JWTService) ValidateStaffToken(tokenString string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc, s.parseOptions...)
	if err != nil {
		return nil, NewAuthenticationError()
	}
	if claims.Type != TokenTypeStaff {
		return nil, NewAuthenticationError()
	}
	return claims, nil
}

// ValidateFormToken parses and validates a submission session token.
func (s *JWTService) ValidateFormToken(tokenString string) (*FormClaims, error) {
	claims := &FormClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc, s.parseOptions...)
	if err != nil {
		return nil, NewAuthenticationError()
	}
	if claims.Type != TokenTypeForm {
		return nil, NewAuthenticationError()
	}
	return claims, nil
}

func (s *JWTService) keyFunc(token *jwt.Token) (interface{}, error) {
	return s.secret, nil
}
