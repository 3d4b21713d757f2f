package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SessionFileName is the fixed key the session is cached under.
const SessionFileName = "civicore.session.json"

var ErrNoSession = errors.New("no cached session")

type StoredSession struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// SessionStore caches the logged in session between runs. A restored session
// is not revalidated with the server.
type SessionStore interface {
	Load() (StoredSession, error)
	Save(session StoredSession) error
	Clear() error
}

type MemorySessionStore struct {
	mu      sync.Mutex
	session *StoredSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Load() (StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return StoredSession{}, ErrNoSession
	}
	return *s.session, nil
}

func (s *MemorySessionStore) Save(session StoredSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session
	return nil
}

func (s *MemorySessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

type FileSessionStore struct {
	path string
}

func NewFileSessionStore(dir string) *FileSessionStore {
	return &FileSessionStore{path: filepath.Join(dir, SessionFileName)}
}

func (s *FileSessionStore) Load() (StoredSession, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StoredSession{}, ErrNoSession
		}
		return StoredSession{}, fmt.Errorf("error reading session file: %w", err)
	}

	var session StoredSession
	if err := json.Unmarshal(data, &session); err != nil || session.Token == "" {
		// A corrupt cache is treated as logged out.
		return StoredSession{}, ErrNoSession
	}
	return session, nil
}

func (s *FileSessionStore) Save(session StoredSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("error creating session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("error writing session file: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing session file: %w", err)
	}
	return nil
}
