package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// UserLookup resolves a username to its current record.
type UserLookup interface {
	GetByUsername(username string) *User
}

type Service struct {
	Users  UserLookup
	Tokens TokenService
}

func NewService(users UserLookup, tokens TokenService) *Service {
	return &Service{Users: users, Tokens: tokens}
}

// Authenticate checks username/password against the credential store.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(username, password string) (*User, error) {
	u := s.Users.GetByUsername(username)
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) IssueToken(u *User) (string, time.Time, error) {
	return s.Tokens.Sign(u)
}

// VerifyToken validates signature and expiry, then re-reads the user so a
// removed account loses access even with an unexpired token.
func (s *Service) VerifyToken(token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	u := s.Users.GetByUsername(claims.Username)
	if u == nil {
		return nil, fmt.Errorf("%w: unknown user %q", ErrUnauthenticated, claims.Username)
	}
	return u, nil
}
