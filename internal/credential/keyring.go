// Package credential keeps the CLI session token in the system keyring.
package credential

import (
	"alcyxob/fitlist/internal/session"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "fitlist"
	tokenKey    = "session-token"
)

// Store is a session.TokenStore backed by a keyring.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store on the first available system keyring backend,
// falling back to encrypted files under fileDir.
func Open(fileDir string) (*Store, error) {
	if fileDir == "" {
		fileDir = "~/.config/fitlist/credentials"
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("fitlist-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Load implements session.TokenStore.
func (s *Store) Load() (string, error) {
	item, err := s.ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", session.ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", tokenKey, err)
	}
	return string(item.Data), nil
}

// Save implements session.TokenStore.
func (s *Store) Save(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: "FitList session",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", tokenKey, err)
	}
	return nil
}

// Clear implements session.TokenStore.
func (s *Store) Clear() error {
	err := s.ring.Remove(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return session.ErrNoToken
	}
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", tokenKey, err)
	}
	return nil
}
