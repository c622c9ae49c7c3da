// Package credentials stores the account username and password used to sign
// in to the AudioAddict API.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Store holds one username/password pair.
type Store interface {
	Username() string
	SetUsername(string) error
	Password() string
	SetPassword(string) error
	HasCredentials() bool
	Reset() error
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*Memory)(nil)
)

const defaultPath = "~/.config/difm/credentials.toml"

type record struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

func (r record) complete() bool {
	return r.Username != "" && r.Password != ""
}

// Memory is an in-process Store.
type Memory struct {
	mu  sync.RWMutex
	rec record
}

// NewMemory returns a Memory store seeded with the given values.
func NewMemory(username, password string) *Memory {
	return &Memory{rec: record{Username: username, Password: password}}
}

func (m *Memory) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rec.Username
}

func (m *Memory) SetUsername(v string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec.Username = v
	return nil
}

func (m *Memory) Password() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rec.Password
}

func (m *Memory) SetPassword(v string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec.Password = v
	return nil
}

func (m *Memory) HasCredentials() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rec.complete()
}

func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = record{}
	return nil
}

// FileStore persists credentials to a TOML file readable only by the owner.
type FileStore struct {
	path string

	mu  sync.RWMutex
	rec record
}

// OpenFile loads the store at path (or the default location). A missing file
// yields an empty store.
func OpenFile(path string) (*FileStore, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	s := &FileStore{path: resolved}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if err := toml.Unmarshal(data, &s.rec); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Username
}

func (s *FileStore) SetUsername(v string) error {
	return s.update(func(r *record) { r.Username = v })
}

func (s *FileStore) Password() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Password
}

func (s *FileStore) SetPassword(v string) error {
	return s.update(func(r *record) { r.Password = v })
}

func (s *FileStore) HasCredentials() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.complete()
}

// Reset clears both values and removes the file.
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = record{}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

func (s *FileStore) update(fn func(*record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.rec)
	return s.save()
}

func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := toml.Marshal(s.rec)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultPath
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
