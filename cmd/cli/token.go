package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"recipehub/pkg/utils"
)

type tokenData struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.recipehub-token.json"
	}
	return filepath.Join(home, ".recipehub", "token.json")
}

func saveToken(path string, td tokenData) error {
	if td.Token == "" {
		return errors.New("empty token")
	}
	data, err := json.MarshalIndent(td, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, data, 0o600)
}

func readToken(path string) (tokenData, error) {
	var td tokenData
	data, err := os.ReadFile(path)
	if err != nil {
		return td, err
	}
	if err := json.Unmarshal(data, &td); err != nil {
		return td, err
	}
	td.Token = strings.TrimSpace(td.Token)
	return td, nil
}

// loadToken returns the saved token, or "" if it is missing or expired.
func loadToken(path string) string {
	td, err := readToken(path)
	if err != nil {
		return ""
	}
	if !td.ExpiresAt.IsZero() && time.Now().After(td.ExpiresAt) {
		return ""
	}
	return td.Token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
