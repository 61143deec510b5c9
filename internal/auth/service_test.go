package auth

import (
	"errors"
	"testing"
	"time"
)

func TestAuthenticate(t *testing.T) {
	svc, _ := setupService(t)

	u, err := svc.Authenticate("alice", "correct horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.Username != "alice" || u.Role != RoleAdmin {
		t.Errorf("user = %+v", u)
	}

	tests := []struct{ user, pass string }{
		{"alice", "wrong"},
		{"nobody", "correct horse"},
		{"ALICE", "correct horse"},
		{"test", "test123"},
	}
	for _, tt := range tests {
		if _, err := svc.Authenticate(tt.user, tt.pass); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q, %q) err = %v, want ErrInvalidCredentials", tt.user, tt.pass, err)
		}
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	svc, _ := setupService(t)
	u, _ := svc.Authenticate("alice", "correct horse")

	token, exp, err := svc.IssueToken(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if d := time.Until(exp); d < 59*time.Minute || d > time.Hour {
		t.Errorf("expiry in %v, want ~1h", d)
	}

	got, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Username != "alice" || got.Name != "Alice" {
		t.Errorf("verified user = %+v", got)
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	svc, _ := setupService(t)
	alice, _ := svc.Authenticate("alice", "correct horse")

	expired := svc.Tokens
	expired.Duration = -time.Minute
	expiredTok, _, err := expired.Sign(alice)
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}

	otherKey := svc.Tokens
	otherKey.Secret = []byte("ffffffffffffffffffffffffffffffff")
	forgedTok, _, _ := otherKey.Sign(alice)

	otherIssuer := svc.Tokens
	otherIssuer.Issuer = "someone-else"
	issuerTok, _, _ := otherIssuer.Sign(alice)

	ghost := &User{Username: "ghost", Role: RoleAdmin}
	ghostTok, _, _ := svc.Tokens.Sign(ghost)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"expired":      expiredTok,
		"wrong key":    forgedTok,
		"wrong issuer": issuerTok,
		"unknown user": ghostTok,
	}
	for name, tok := range tests {
		if _, err := svc.VerifyToken(tok); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("%s: err = %v, want ErrUnauthenticated", name, err)
		}
	}
}

func TestVerifyTokenAfterUserRemoved(t *testing.T) {
	svc, _ := setupService(t)
	alice, _ := svc.Authenticate("alice", "correct horse")
	token, _, _ := svc.IssueToken(alice)

	// credential store reloaded without alice
	smaller, err := NewRepo([]User{{Username: "bob", PasswordHash: hashFor(t, "x")}})
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	svc.Users = smaller

	if _, err := svc.VerifyToken(token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}
