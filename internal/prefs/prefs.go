// Package prefs handles difm user preferences persistence.
// Preferences are stored in ~/.config/difm/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/difm/internal/catalog"
	"github.com/five82/difm/internal/watch"
)

// Prefs holds user preferences as stored on disk.
type Prefs struct {
	StreamQuality string `toml:"stream_quality"`
	Theme         string `toml:"theme"`
}

const (
	defaultPrefsPath = "~/.config/difm/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Defaults returns the preferences used when nothing is stored.
func Defaults() Prefs {
	return Prefs{StreamQuality: string(catalog.DefaultQuality), Theme: defaultTheme}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), nil
	}

	prefs := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Defaults(), nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	q, err := catalog.ParseQuality(prefs.StreamQuality)
	if err != nil {
		q = catalog.DefaultQuality
	}
	prefs.StreamQuality = string(q)

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// Change is published after a setting changes. It carries the full set of
// values in effect after the change.
type Change struct {
	StreamQuality catalog.Quality
	Theme         string
}

// Settings is the live, persisted preference set. Setters save to disk and
// notify subscribers when a value actually changes.
type Settings struct {
	path string

	mu    sync.RWMutex
	prefs Prefs

	events watch.Broadcaster[Change]
}

// Open loads Settings from path (or the default location).
func Open(path string) *Settings {
	p, _ := Load(path)
	return &Settings{path: path, prefs: p}
}

// StreamQuality returns the preferred stream quality.
func (s *Settings) StreamQuality() catalog.Quality {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.Quality(s.prefs.StreamQuality)
}

// SetStreamQuality stores q. Invalid qualities are rejected.
func (s *Settings) SetStreamQuality(q catalog.Quality) error {
	if !q.Valid() {
		return fmt.Errorf("unknown stream quality %q", string(q))
	}
	return s.update(func(p *Prefs) { p.StreamQuality = string(q) })
}

// Theme returns the preferred UI theme name.
func (s *Settings) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Theme
}

// SetTheme stores the UI theme name.
func (s *Settings) SetTheme(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("theme name is empty")
	}
	return s.update(func(p *Prefs) { p.Theme = name })
}

// Subscribe returns a channel of changes and a cancel func.
func (s *Settings) Subscribe() (<-chan Change, func()) {
	return s.events.Subscribe()
}

// update applies fn, saves, and notifies. The in-memory value and the
// notification stand even when saving fails; the save error is returned.
func (s *Settings) update(fn func(*Prefs)) error {
	s.mu.Lock()
	next := s.prefs
	fn(&next)
	if next == s.prefs {
		s.mu.Unlock()
		return nil
	}
	s.prefs = next
	saveErr := Save(s.path, next)
	s.mu.Unlock()

	s.events.Publish(Change{StreamQuality: catalog.Quality(next.StreamQuality), Theme: next.Theme})
	if saveErr != nil {
		return fmt.Errorf("save prefs: %w", saveErr)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
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
