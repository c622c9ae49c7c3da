package credentials

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.toml")

	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}
	if s.HasCredentials() {
		t.Fatalf("new store should be empty")
	}
	if err := s.SetUsername("ada"); err != nil {
		t.Fatalf("SetUsername returned error: %v", err)
	}
	if s.HasCredentials() {
		t.Fatalf("HasCredentials = true with only a username")
	}
	if err := s.SetPassword("secret"); err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("file mode = %v, want 0600", perm)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}
	if reopened.Username() != "ada" || reopened.Password() != "secret" || !reopened.HasCredentials() {
		t.Fatalf("reopened = %q/%q", reopened.Username(), reopened.Password())
	}

	if err := reopened.Reset(); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if reopened.HasCredentials() || reopened.Username() != "" {
		t.Fatalf("Reset did not clear values")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("credentials file should be removed, stat err = %v", err)
	}
	if err := reopened.Reset(); err != nil {
		t.Fatalf("second Reset returned error: %v", err)
	}
}

func TestOpenFile_DefaultPathAndInvalidFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	s, err := OpenFile("")
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}
	if s.Path() != filepath.Join(home, ".config", "difm", "credentials.toml") {
		t.Fatalf("Path = %q", s.Path())
	}

	bad := filepath.Join(t.TempDir(), "credentials.toml")
	if err := os.WriteFile(bad, []byte("username = ["), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := OpenFile(bad); err == nil {
		t.Fatalf("OpenFile returned nil error for invalid TOML")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory("ada", "")
	if m.HasCredentials() {
		t.Fatalf("HasCredentials = true without password")
	}
	_ = m.SetPassword("pw")
	if !m.HasCredentials() || m.Password() != "pw" || m.Username() != "ada" {
		t.Fatalf("memory store = %q/%q", m.Username(), m.Password())
	}
	_ = m.Reset()
	if m.HasCredentials() {
		t.Fatalf("Reset did not clear values")
	}
}
