package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/difm/internal/audioaddict"
	"github.com/five82/difm/internal/catalog"
)

// Config holds the client settings read from config.toml and the environment.
type Config struct {
	BaseURL           string
	APIKey            string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	StyleFilterIDs    []int
	HiddenFilterIDs   []int
	PrefsPath         string
	CredentialsPath   string
}

const (
	defaultConfigPath      = "~/.config/difm/config.toml"
	defaultPrefsPath       = "~/.config/difm/prefs.toml"
	defaultCredentialsPath = "~/.config/difm/credentials.toml"
	defaultTimeout         = 10 * time.Second
	defaultRequestsPerSec  = 2.0
)

// Environment variables that override file values.
const (
	EnvAPIKey    = "DIFM_API_KEY"
	EnvBaseURL   = "DIFM_BASE_URL"
	EnvUserAgent = "DIFM_USER_AGENT"
)

// Load reads the config file at path (or the default location), falling back
// to defaults when it is missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := apply(&cfg, bytes); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	cfg.PrefsPath = mustExpand(cfg.PrefsPath)
	cfg.CredentialsPath = mustExpand(cfg.CredentialsPath)
	return cfg, nil
}

func defaults() Config {
	return Config{
		BaseURL:           audioaddict.DefaultBaseURL,
		UserAgent:         audioaddict.DefaultUserAgent,
		Timeout:           defaultTimeout,
		RequestsPerSecond: defaultRequestsPerSec,
		StyleFilterIDs:    catalog.DefaultStyleFilterIDs(),
		HiddenFilterIDs:   catalog.DefaultHiddenFilterIDs(),
		PrefsPath:         defaultPrefsPath,
		CredentialsPath:   defaultCredentialsPath,
	}
}

func apply(cfg *Config, data []byte) error {
	var raw struct {
		BaseURL           string   `toml:"base_url"`
		APIKey            string   `toml:"api_key"`
		UserAgent         string   `toml:"user_agent"`
		Timeout           string   `toml:"timeout"`
		RequestsPerSecond *float64 `toml:"requests_per_second"`
		StyleFilterIDs    *[]int   `toml:"style_filter_ids"`
		HiddenFilterIDs   *[]int   `toml:"hidden_filter_ids"`
		PrefsPath         string   `toml:"prefs_path"`
		CredentialsPath   string   `toml:"credentials_path"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.BaseURL, raw.BaseURL)
	setString(&cfg.APIKey, raw.APIKey)
	setString(&cfg.UserAgent, raw.UserAgent)
	setString(&cfg.PrefsPath, raw.PrefsPath)
	setString(&cfg.CredentialsPath, raw.CredentialsPath)

	if timeout := strings.TrimSpace(raw.Timeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("parse config: timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("parse config: timeout must be positive, got %s", d)
		}
		cfg.Timeout = d
	}
	if raw.RequestsPerSecond != nil {
		if *raw.RequestsPerSecond < 0 {
			return fmt.Errorf("parse config: requests_per_second must not be negative")
		}
		cfg.RequestsPerSecond = *raw.RequestsPerSecond
	}
	if raw.StyleFilterIDs != nil {
		cfg.StyleFilterIDs = append([]int{}, (*raw.StyleFilterIDs)...)
	}
	if raw.HiddenFilterIDs != nil {
		cfg.HiddenFilterIDs = append([]int{}, (*raw.HiddenFilterIDs)...)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.APIKey, os.Getenv(EnvAPIKey))
	setString(&cfg.BaseURL, os.Getenv(EnvBaseURL))
	setString(&cfg.UserAgent, os.Getenv(EnvUserAgent))
}

// setString overwrites dst when value is non-blank.
func setString(dst *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dst = trimmed
	}
}

// Classification returns the channel filter tables configured for the UI.
func (c Config) Classification() catalog.Classification {
	return catalog.NewClassification(c.StyleFilterIDs, c.HiddenFilterIDs)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
