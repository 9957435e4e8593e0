// Package credential stores tracker passwords and API tokens in the OS
// keyring so they never have to be written to the step configuration.
package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "issue-updater"

// Environment variables that adjust the keyring on build agents that have
// no desktop keychain.
const (
	// BackendEnv restricts the keyring to one backend (e.g. "file", "pass").
	BackendEnv = "ISSUE_UPDATER_KEYRING_BACKEND"

	// FilePasswordEnv is the passphrase of the encrypted file backend.
	FilePasswordEnv = "ISSUE_UPDATER_KEYRING_PASSWORD"
)

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = errors.New("credential not found")

var defaultBackends = []keyring.BackendType{
	keyring.KeychainBackend,
	keyring.SecretServiceBackend,
	keyring.WinCredBackend,
	keyring.PassBackend,
	keyring.FileBackend,
}

// Key returns the keyring entry name for a tracker account. Accounts
// without a username use a bearer token.
func Key(trackerURL, username string) string {
	if username == "" {
		return "token@" + trackerURL
	}
	return username + "@" + trackerURL
}

func backends() ([]keyring.BackendType, error) {
	name := strings.ToLower(strings.TrimSpace(os.Getenv(BackendEnv)))
	if name == "" {
		return defaultBackends, nil
	}
	for _, b := range keyring.AvailableBackends() {
		if string(b) == name {
			return []keyring.BackendType{b}, nil
		}
	}
	return nil, fmt.Errorf("keyring backend %q is not available on this system", name)
}

func filePassword(prompt string) (string, error) {
	if pass := os.Getenv(FilePasswordEnv); pass != "" {
		return pass, nil
	}
	return keyring.TerminalPrompt(prompt)
}

func open() (keyring.Keyring, error) {
	allowed, err := backends()
	if err != nil {
		return nil, err
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		AllowedBackends:          allowed,
		FileDir:                  "~/.config/issue-updater/credentials",
		FilePasswordFunc:         filePassword,
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get returns the secret stored under key, or an error wrapping
// ErrNotFound when there is none.
func Get(key string) (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	switch {
	case errors.Is(err, keyring.ErrKeyNotFound):
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	case err != nil:
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores secret under key, replacing any previous value.
func Set(key, secret string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	item := keyring.Item{
		Key:         key,
		Label:       serviceName + " " + key,
		Description: "Jira password or API token used by issue-updater",
		Data:        []byte(secret),
	}
	if err := ring.Set(item); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes the secret stored under key. Deleting a missing key
// returns an error wrapping ErrNotFound.
func Delete(key string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	switch {
	case errors.Is(err, keyring.ErrKeyNotFound):
		return fmt.Errorf("deleting credential %q: %w", key, ErrNotFound)
	case err != nil:
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
