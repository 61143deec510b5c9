package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func hashFor(t *testing.T, password string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(b)
}

func setupService(t *testing.T) (*Service, *Repo) {
	t.Helper()
	repo, err := NewRepo([]User{
		{Username: "alice", PasswordHash: hashFor(t, "correct horse"), Role: RoleAdmin, Name: "Alice"},
		{Username: "bob", PasswordHash: hashFor(t, "battery staple"), Role: RoleEditor},
	})
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	tokens := TokenService{Secret: []byte(testSecret), Issuer: "recipehub-test", Duration: time.Hour}
	return NewService(repo, tokens), repo
}
