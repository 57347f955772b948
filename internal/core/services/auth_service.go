package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// OperatorSubject is the token subject for the single configured operator.
const OperatorSubject = "operator"

// AuthService authenticates the operator of the admin surface. There is no
// user table: the bot's end users are identified by the transport, and only
// the operator logs in, against a bcrypt hash supplied via configuration.
type AuthService struct {
	passwordHash []byte
}

func NewAuthService(passwordHash string) *AuthService {
	return &AuthService{
		passwordHash: []byte(passwordHash),
	}
}

// HashPassword produces a bcrypt hash suitable for OPERATOR_PASSWORD_HASH.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login verifies the operator password.
func (s *AuthService) Login(password string) error {
	if len(s.passwordHash) == 0 {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
