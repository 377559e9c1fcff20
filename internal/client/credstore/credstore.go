// Package credstore persists the access credential across client restarts.
// It is the only durable client-side state; everything else is rebuilt
// from the server on each run.
package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// credentials is the on-disk shape of the persisted credential.
type credentials struct {
	AccessToken string `json:"accessToken"`
}

// Store reads and writes the credential file. Safe for concurrent use.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a Store persisting to the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted access token, or the empty string if no
// credential file exists.
func (s *Store) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read credentials: %w", err)
	}

	var c credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}
	return c.AccessToken, nil
}

// Save replaces the persisted credential with token. The file is written
// to a temporary path and renamed into place so readers never observe a
// partial write.
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(credentials{AccessToken: token})
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}

// Clear removes the credential file. Removing an already-absent file is
// not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
