// Package file implements a durable kvstore.Store as a single JSON document
// on disk, the closest analog of browser localStorage for a CLI process.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/akulikov-dev/localchat/internal/kvstore"
)

// Store keeps the whole key space in one file. Every read loads the document
// fresh from disk, so a process polling the store observes writes made by
// other processes sharing the same path, the way tabs share localStorage.
// Mutations reload, modify and rewrite the whole file synchronously and not
// atomically: two processes doing read-modify-write on the same log will
// lose one update, same as two browser tabs.
type Store struct {
	path string
}

// New opens the document at path, creating state lazily on first write.
func New(path string) (*Store, error) {
	s := &Store{path: path}
	// Surface unreadable paths at open time rather than on first use.
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultPath returns the conventional location under the user config dir.
func DefaultPath() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "localchat", "storage.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "localchat", "storage.json")
}

// Get returns the value stored under key as of this call.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	m, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := m[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// Set writes value under key and flushes the document.
func (s *Store) Set(_ context.Context, key, value string) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	m[key] = value
	return s.flush(m)
}

// Delete removes key and flushes the document.
func (s *Store) Delete(_ context.Context, key string) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	delete(m, key)
	return s.flush(m)
}

func (s *Store) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	// Malformed documents are treated as empty, matching the default-fallback
	// reads used everywhere else.
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]string{}, nil
	}
	return m, nil
}

func (s *Store) flush(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

var _ kvstore.Store = (*Store)(nil)
