package oldreader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "oldnews"
	keyringUser = "theoldreader"
)

// TokenStore persists the API auth token in the OS keyring (macOS
// Keychain, Windows Credential Manager, or Linux Secret Service),
// falling back to a .token file in the data directory on systems with
// no keyring service.
type TokenStore struct {
	dataDir string
}

// NewTokenStore returns a TokenStore using the given data directory for
// its file fallback.
func NewTokenStore(dataDir string) *TokenStore {
	return &TokenStore{dataDir: dataDir}
}

func (t *TokenStore) tokenFile() string {
	return filepath.Join(t.dataDir, ".token")
}

// Save stores the auth token.
func (t *TokenStore) Save(token string) error {
	if err := keyring.Set(serviceName, keyringUser, token); err == nil {
		return nil
	}
	if err := os.WriteFile(t.tokenFile(), []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Load retrieves the auth token.
func (t *TokenStore) Load() (string, error) {
	if token, err := keyring.Get(serviceName, keyringUser); err == nil {
		return token, nil
	}
	data, err := os.ReadFile(t.tokenFile())
	if err != nil {
		return "", fmt.Errorf("failed to load token (run 'oldnews login' first): %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Delete removes the auth token from the keyring and the fallback file.
func (t *TokenStore) Delete() error {
	// A token may live in either place; missing entries are fine.
	_ = keyring.Delete(serviceName, keyringUser)
	if err := os.Remove(t.tokenFile()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
