package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

type User struct {
	Username     string `yaml:"username" json:"username"`
	PasswordHash string `yaml:"password_hash" json:"-"`
	Role         string `yaml:"role" json:"role"`
	Name         string `yaml:"name" json:"name"`
}

// Repo is the static credential store. It is built once at startup and
// never mutated, so lookups need no locking.
type Repo struct {
	users map[string]User
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// LoadRepo reads a YAML file of the form
//
//	users:
//	  - username: alice
//	    password_hash: $2a$10$...
//	    role: admin
//	    name: Alice
func LoadRepo(path string) (*Repo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var f usersFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	return NewRepo(f.Users)
}

func NewRepo(users []User) (*Repo, error) {
	r := &Repo{users: make(map[string]User, len(users))}
	for i, u := range users {
		u.Username = strings.TrimSpace(u.Username)
		if u.Username == "" {
			return nil, fmt.Errorf("user %d: username required", i)
		}
		if _, dup := r.users[u.Username]; dup {
			return nil, fmt.Errorf("user %q: duplicate username", u.Username)
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return nil, fmt.Errorf("user %q: password_hash is not a bcrypt hash", u.Username)
		}
		switch u.Role {
		case "":
			u.Role = RoleEditor
		case RoleAdmin, RoleEditor:
		default:
			return nil, fmt.Errorf("user %q: unknown role %q", u.Username, u.Role)
		}
		if u.Name == "" {
			u.Name = u.Username
		}
		r.users[u.Username] = u
	}
	return r, nil
}

// GetByUsername returns a copy of the user, or nil when absent.
func (r *Repo) GetByUsername(username string) *User {
	u, ok := r.users[username]
	if !ok {
		return nil
	}
	return &u
}

func (r *Repo) Len() int {
	return len(r.users)
}
